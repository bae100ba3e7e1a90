package model

import "time"

// Payment status values.  A payment starts pending and is moved to
// completed or failed only by the external provider's webhook.  The
// completed transition triggers the fine reduction exactly once.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment records one fine-settlement attempt with the external payment
// provider.  SessionID is the opaque identifier handed to the provider and
// echoed back by its webhook; ProviderRef holds the provider's own payment
// reference once known.
//
// Fields:
//  ID          – primary key identifier.
//  StudentID   – student settling their fines.
//  AmountPaise – settlement amount in paise.
//  Status      – one of the Payment* constants above.
//  SessionID   – unique session identifier (uuid) for webhook correlation.
//  ProviderRef – provider-side payment reference (nil until completion).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Payment struct {
	ID          uint64    `json:"id"`
	StudentID   uint64    `json:"student_id"`
	AmountPaise int64     `json:"amount_paise"`
	Status      string    `json:"status"`
	SessionID   string    `json:"session_id"`
	ProviderRef *string   `json:"provider_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
