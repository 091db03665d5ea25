package model

import "time"

type Guest struct {
	Title       string `json:"title" bson:"title" validate:"omitempty,max=10"`
	FirstName   string `json:"first_name" bson:"first_name" validate:"required,min=1,max=100"`
	LastName    string `json:"last_name" bson:"last_name" validate:"required,min=1,max=100"`
	Email       string `json:"email" bson:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	IsLeadGuest bool   `json:"is_lead_guest" bson:"is_lead_guest"`
}

type HotelBooking struct {
	ID                     string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID              string    `json:"booking_id" bson:"booking_id"`
	UserID                 string    `json:"user_id" bson:"user_id"`
	ProviderConfirmationID string    `json:"provider_confirmation_id" bson:"provider_confirmation_id"`
	HotelID                string    `json:"hotel_id" bson:"hotel_id"`
	HotelName              string    `json:"hotel_name" bson:"hotel_name"`
	CheckInDate            string    `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate           string    `json:"check_out_date" bson:"check_out_date"`
	RoomType               string    `json:"room_type,omitempty" bson:"room_type,omitempty"`
	TotalPrice             string    `json:"total_price" bson:"total_price"`
	Currency               string    `json:"currency" bson:"currency"`
	Guests                 []Guest   `json:"guests" bson:"guests"`
	Status                 string    `json:"status" bson:"status"`
	CreatedAt              time.Time `json:"created_at" bson:"created_at"`
}

type HotelBookingRequest struct {
	OfferID string  `json:"offer_id" validate:"required"`
	Guests  []Guest `json:"guests" validate:"required,min=1,max=9,dive"`
}
