package model

import (
	"encoding/json"
	"time"
)

// ReconciliationRecord captures a booking that exists on the provider
// side but could not be written locally. Records are worked off manually;
// retrying order creation automatically would double-book.
type ReconciliationRecord struct {
	ID                     string          `json:"id,omitempty" bson:"_id,omitempty"`
	Domain                 string          `json:"domain" bson:"domain"` // "flight" or "hotel"
	UserID                 string          `json:"user_id" bson:"user_id"`
	ProviderConfirmationID string          `json:"provider_confirmation_id" bson:"provider_confirmation_id"`
	Payload                json.RawMessage `json:"payload" bson:"payload"`
	Reason                 string          `json:"reason" bson:"reason"`
	Resolved               bool            `json:"resolved" bson:"resolved"`
	CreatedAt              time.Time       `json:"created_at" bson:"created_at"`
}
