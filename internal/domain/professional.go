package domain

import (
	"time"
)

type Professional struct {
	ID                 int64             `json:"id"`
	UserID             int64             `json:"user_id"`
	Title              string            `json:"title"`
	Bio                string            `json:"bio"`
	IssueTypes         []string          `json:"issue_types"`
	TherapyTypes       []TherapyType     `json:"therapy_types"`
	Formats            []AppointmentType `json:"formats"`
	Languages          []string          `json:"languages"`
	ExperienceYears    int               `json:"experience_years"`
	SessionPrice       float64           `json:"session_price"`
	IsVerified         bool              `json:"is_verified"`
	ProfilePhotoURL    string            `json:"profile_photo_url"`
	LicenseDocumentURL string            `json:"license_document_url,omitempty"`
	User               User              `json:"user"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type CreateProfessionalDTO struct {
	Title           string            `json:"title" binding:"required"`
	Bio             string            `json:"bio"`
	IssueTypes      []string          `json:"issue_types" binding:"required,min=1"`
	TherapyTypes    []TherapyType     `json:"therapy_types" binding:"required,min=1,dive,oneof=solo couple group"`
	Formats         []AppointmentType `json:"formats" binding:"required,min=1,dive,oneof=video in_person phone"`
	Languages       []string          `json:"languages"`
	ExperienceYears int               `json:"experience_years" binding:"min=0"`
	SessionPrice    float64           `json:"session_price" binding:"min=0"`
}

type UpdateProfessionalDTO struct {
	Title           *string            `json:"title"`
	Bio             *string            `json:"bio"`
	IssueTypes      *[]string          `json:"issue_types"`
	TherapyTypes    *[]TherapyType     `json:"therapy_types" binding:"omitempty,dive,oneof=solo couple group"`
	Formats         *[]AppointmentType `json:"formats" binding:"omitempty,dive,oneof=video in_person phone"`
	Languages       *[]string          `json:"languages"`
	ExperienceYears *int               `json:"experience_years" binding:"omitempty,min=0"`
	SessionPrice    *float64           `json:"session_price" binding:"omitempty,min=0"`
	IsVerified      *bool              `json:"is_verified"`
}

type ProfessionalFilter struct {
	IssueType   *string          `json:"issue_type"`
	TherapyType *TherapyType     `json:"therapy_type"`
	Format      *AppointmentType `json:"format"`
	Verified    *bool            `json:"verified"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
}
