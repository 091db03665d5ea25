package model

import "time"

// UserCredential is the persisted identity record. The failed-attempt
// counter and lockout timestamp are mutated only by the accounts service,
// inside a transaction, so concurrent logins for the same account cannot
// lose updates.
type UserCredential struct {
	ID                  string     `json:"id,omitempty" bson:"_id,omitempty"`
	Email               string     `json:"email" bson:"email" validate:"required,email"`
	PasswordHash        string     `json:"-" bson:"password_hash"`
	FirstName           string     `json:"first_name" bson:"first_name" validate:"omitempty,min=1,max=100"`
	LastName            string     `json:"last_name" bson:"last_name" validate:"omitempty,min=1,max=100"`
	Phone               string     `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	FailedLoginAttempts int        `json:"-" bson:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"-" bson:"account_locked_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
}

type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}
