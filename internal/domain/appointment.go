package domain

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// IsTerminal: из завершённых состояний переходов нет.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusNoShow || s == AppointmentStatusCancelled
}

type RoutingStatus string

const (
	RoutingStatusProposed RoutingStatus = "proposed"
	RoutingStatusGeneral  RoutingStatus = "general"
)

type AppointmentType string

const (
	AppointmentTypeVideo    AppointmentType = "video"
	AppointmentTypeInPerson AppointmentType = "in_person"
	AppointmentTypePhone    AppointmentType = "phone"
)

type TherapyType string

const (
	TherapyTypeSolo   TherapyType = "solo"
	TherapyTypeCouple TherapyType = "couple"
	TherapyTypeGroup  TherapyType = "group"
)

type BookingFor string

const (
	BookingForSelf     BookingFor = "self"
	BookingForPatient  BookingFor = "patient"
	BookingForLovedOne BookingFor = "loved_one"
)

type CancelledBy string

const (
	CancelledByClient       CancelledBy = "client"
	CancelledByProfessional CancelledBy = "professional"
)

type Appointment struct {
	ID               int64             `json:"id"`
	ClientID         int64             `json:"client_id"`
	ProfessionalID   *int64            `json:"professional_id"`
	Date             time.Time         `json:"date"`
	Time             string            `json:"time"`
	DurationMinutes  int               `json:"duration_minutes"`
	Type             AppointmentType   `json:"type"`
	TherapyType      TherapyType       `json:"therapy_type"`
	Status           AppointmentStatus `json:"status"`
	RoutingStatus    RoutingStatus     `json:"routing_status"`
	BookingFor       BookingFor        `json:"booking_for"`
	MeetingLink      string            `json:"meeting_link,omitempty"`
	Location         string            `json:"location,omitempty"`
	IssueType        string            `json:"issue_type"`
	Notes            string            `json:"notes,omitempty"`
	CancelledBy      *CancelledBy      `json:"cancelled_by,omitempty"`
	ReminderSentAt   *time.Time        `json:"reminder_sent_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	ClientName       string            `json:"client_name,omitempty"`
	ClientEmail      string            `json:"client_email,omitempty"`
	ProfessionalName string            `json:"professional_name,omitempty"`
}

type CreateAppointmentDTO struct {
	ProfessionalID  *int64          `json:"professional_id"`
	Date            *time.Time      `json:"date"`
	Time            string          `json:"time"`
	DurationMinutes int             `json:"duration_minutes" binding:"omitempty,oneof=30 45 50 60 90 120"`
	Type            AppointmentType `json:"type" binding:"required,oneof=video in_person phone"`
	TherapyType     TherapyType     `json:"therapy_type" binding:"required,oneof=solo couple group"`
	BookingFor      BookingFor      `json:"booking_for" binding:"required,oneof=self patient loved_one"`
	IssueType       string          `json:"issue_type" binding:"required"`
	Notes           string          `json:"notes"`
}

type UpdateAppointmentDTO struct {
	Status      *AppointmentStatus `json:"status" binding:"omitempty,oneof=pending scheduled ongoing completed no_show cancelled"`
	Date        *time.Time         `json:"date"`
	Time        *string            `json:"time"`
	MeetingLink *string            `json:"meeting_link"`
	Location    *string            `json:"location"`
	Notes       *string            `json:"notes"`
}

type AcceptAppointmentDTO struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type AppointmentFilter struct {
	ClientID       *int64             `json:"client_id"`
	ProfessionalID *int64             `json:"professional_id"`
	Status         *AppointmentStatus `json:"status"`
	RoutingStatus  *RoutingStatus     `json:"routing_status"`
	ExcludeStatus  *AppointmentStatus `json:"exclude_status"`
	StartDate      *time.Time         `json:"start_date"`
	EndDate        *time.Time         `json:"end_date"`
	Limit          int                `json:"limit"`
	Offset         int                `json:"offset"`
}

type AppointmentEvent struct {
	Event         string            `json:"event"`
	AppointmentID int64             `json:"appointment_id"`
	Status        AppointmentStatus `json:"status"`
	RoutingStatus RoutingStatus     `json:"routing_status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
