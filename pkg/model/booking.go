package model

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Traveler struct {
	FirstName   string `json:"first_name" bson:"first_name" validate:"required,min=1,max=100"`
	LastName    string `json:"last_name" bson:"last_name" validate:"required,min=1,max=100"`
	DateOfBirth string `json:"date_of_birth" bson:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Email       string `json:"email" bson:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
}

// Booking is the local record of a flight order that the provider has
// actually created. It is immutable once confirmed except for the
// confirmed -> cancelled status transition.
type Booking struct {
	ID                     string     `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID              string     `json:"booking_id" bson:"booking_id"`
	UserID                 string     `json:"user_id" bson:"user_id"`
	ProviderConfirmationID string     `json:"provider_confirmation_id" bson:"provider_confirmation_id"`
	Departure              string     `json:"departure" bson:"departure"`
	Arrival                string     `json:"arrival" bson:"arrival"`
	DepartureDate          time.Time  `json:"departure_date" bson:"departure_date"`
	ArrivalDate            *time.Time `json:"arrival_date,omitempty" bson:"arrival_date,omitempty"`
	CarrierCode            string     `json:"carrier_code" bson:"carrier_code"`
	FlightNumber           string     `json:"flight_number" bson:"flight_number"`
	PriceTotal             string     `json:"price_total" bson:"price_total"`
	Currency               string     `json:"currency" bson:"currency"`
	Travelers              []Traveler `json:"travelers" bson:"travelers"`
	Status                 string     `json:"status" bson:"status"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
}

// BookingRequest is what a client submits: the raw offer payload as
// returned by flight search, plus traveler details.
type BookingRequest struct {
	Offer     json.RawMessage `json:"offer" validate:"required"`
	Travelers []Traveler      `json:"travelers" validate:"required,min=1,max=9,dive"`
}
