// Package queue defines message payloads exchanged over the message broker
// and the background consumer that delivers them.
package queue

// Notification kinds carried on the notification.email queue.
const (
	KindReservationConfirmed = "reservation_confirmed"
	KindOTPIssued            = "otp_issued"
)

// NotificationEvent is published whenever the system needs to email a
// student.  It contains enough information for downstream consumers to
// render and send the message without querying the primary database.
type NotificationEvent struct {
	Kind          string `json:"kind"`
	ReservationID uint64 `json:"reservation_id"`
	StudentID     uint64 `json:"student_id"`
	Email         string `json:"email"`
	SeatNumber    string `json:"seat_number"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	Message       string `json:"message"`
	IssuedAt      string `json:"issued_at"`
}
