package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"user_id",
			"provider_confirmation_id",
			"departure",
			"arrival",
			"departure_date",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"provider_confirmation_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"departure": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"arrival": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"departure_date": bson.M{
				"bsonType": "date",
			},

			"travelers": bson.M{
				"bsonType": "array",
				"minItems": 1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var HotelBookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"user_id",
			"provider_confirmation_id",
			"hotel_id",
			"check_in_date",
			"check_out_date",
			"guests",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"provider_confirmation_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"hotel_id": bson.M{
				"bsonType": "string",
			},

			"check_in_date": bson.M{
				"bsonType": "string",
			},

			"check_out_date": bson.M{
				"bsonType": "string",
			},

			"guests": bson.M{
				"bsonType": "array",
				"minItems": 1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
