package domain

import (
	"time"
)

// GuestBooking связывает запись на сессию с контактами гостя без аккаунта
// и платёжным намерением Stripe.
type GuestBooking struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	AppointmentID   int64     `json:"appointment_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"-"`
	Paid            bool      `json:"paid"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateGuestBookingDTO struct {
	Name           string          `json:"name" binding:"required"`
	Email          string          `json:"email" binding:"required,email"`
	Phone          string          `json:"phone" binding:"required"`
	ProfessionalID *int64          `json:"professional_id"`
	Type           AppointmentType `json:"type" binding:"required,oneof=video in_person phone"`
	TherapyType    TherapyType     `json:"therapy_type" binding:"required,oneof=solo couple group"`
	IssueType      string          `json:"issue_type" binding:"required"`
	Notes          string          `json:"notes"`
}
