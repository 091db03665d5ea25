package model

import "time"

var ExpenseCategories = []string{"Flights", "Hotels", "Food", "Transport", "Shopping", "Misc"}

type Trip struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Destination string    `json:"destination" bson:"destination" validate:"required,min=1,max=100"`
	StartDate   time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" bson:"end_date" validate:"required,gtefield=StartDate"`
	Budget      float64   `json:"budget" bson:"budget" validate:"gte=0"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=2000"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

type Expense struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	TripID    string    `json:"trip_id" bson:"trip_id" validate:"required"`
	Title     string    `json:"title" bson:"title" validate:"required,min=1,max=100"`
	Amount    float64   `json:"amount" bson:"amount" validate:"required,gt=0"`
	Currency  string    `json:"currency" bson:"currency" validate:"required,len=3"`
	Category  string    `json:"category" bson:"category" validate:"required,oneof=Flights Hotels Food Transport Shopping Misc"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty" validate:"max=2000"`
	Date      time.Time `json:"date" bson:"date" validate:"required"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type TripSummary struct {
	Trip              string             `json:"trip"`
	Budget            float64            `json:"budget"`
	TotalSpent        float64            `json:"total_spent"`
	Remaining         float64            `json:"remaining"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
}
