package validators

import "go.mongodb.org/mongo-driver/bson"

var ReconciliationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"domain",
			"user_id",
			"provider_confirmation_id",
			"reason",
			"resolved",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"domain": bson.M{
				"bsonType": "string",
				"enum": []string{
					"flight",
					"hotel",
				},
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"provider_confirmation_id": bson.M{
				"bsonType": "string",
			},

			"reason": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"resolved": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
