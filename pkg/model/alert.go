package model

import "time"

// FlightAlert is the event published to Kafka when a delay prediction
// crosses the alerting threshold.
type FlightAlert struct {
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	CarrierCode   string    `json:"carrier_code"`
	FlightNumber  string    `json:"flight_number"`
	DepartureDate string    `json:"departure_date"`
	DelayBand     string    `json:"delay_band"`
	Probability   float64   `json:"probability"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}
