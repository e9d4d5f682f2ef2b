package domain

import (
	"time"
)

// MedicalProfile — анкета клиента, заполняется при регистрации или позже.
// Плоская запись без связей с другими сущностями, читается специалистом
// только при наличии запланированной сессии.
type MedicalProfile struct {
	ID                       int64     `json:"id"`
	ClientID                 int64     `json:"client_id"`
	Conditions               []string  `json:"conditions"`
	Symptoms                 []string  `json:"symptoms"`
	SymptomDurationMonths    int       `json:"symptom_duration_months"`
	Medications              string    `json:"medications"`
	PreviousTherapy          bool      `json:"previous_therapy"`
	PreviousTherapyDetails   string    `json:"previous_therapy_details,omitempty"`
	Goals                    []string  `json:"goals"`
	SleepQuality             string    `json:"sleep_quality"`
	StressLevel              int       `json:"stress_level"`
	EmergencyContactName     string    `json:"emergency_contact_name"`
	EmergencyContactPhone    string    `json:"emergency_contact_phone"`
	EmergencyContactRelation string    `json:"emergency_contact_relation"`
	PreferredLanguage        string    `json:"preferred_language"`
	Notes                    string    `json:"notes,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

type UpdateMedicalProfileDTO struct {
	Conditions               *[]string `json:"conditions"`
	Symptoms                 *[]string `json:"symptoms"`
	SymptomDurationMonths    *int      `json:"symptom_duration_months" binding:"omitempty,min=0"`
	Medications              *string   `json:"medications"`
	PreviousTherapy          *bool     `json:"previous_therapy"`
	PreviousTherapyDetails   *string   `json:"previous_therapy_details"`
	Goals                    *[]string `json:"goals"`
	SleepQuality             *string   `json:"sleep_quality" binding:"omitempty,oneof=good fair poor"`
	StressLevel              *int      `json:"stress_level" binding:"omitempty,min=1,max=10"`
	EmergencyContactName     *string   `json:"emergency_contact_name"`
	EmergencyContactPhone    *string   `json:"emergency_contact_phone"`
	EmergencyContactRelation *string   `json:"emergency_contact_relation"`
	PreferredLanguage        *string   `json:"preferred_language"`
	Notes                    *string   `json:"notes"`
}

// Мастер регистрации. Состояние шага передаётся по значению:
// клиент присылает текущее состояние плюс данные шага, сервер валидирует
// и возвращает новое состояние либо список ошибок.
type WizardStep string

const (
	WizardStepAccount  WizardStep = "account"
	WizardStepContact  WizardStep = "contact"
	WizardStepMedical  WizardStep = "medical"
	WizardStepPractice WizardStep = "practice"
	WizardStepReview   WizardStep = "review"
	WizardStepDone     WizardStep = "done"
)

// ClientWizardSteps и ProfessionalWizardSteps задают порядок шагов по ролям.
var (
	ClientWizardSteps       = []WizardStep{WizardStepAccount, WizardStepContact, WizardStepMedical, WizardStepReview}
	ProfessionalWizardSteps = []WizardStep{WizardStepAccount, WizardStepContact, WizardStepPractice, WizardStepReview}
)

type SignupForm struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`

	// Шаг medical (клиенты).
	Conditions            []string `json:"conditions,omitempty"`
	Symptoms              []string `json:"symptoms,omitempty"`
	Goals                 []string `json:"goals,omitempty"`
	EmergencyContactName  string   `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string   `json:"emergency_contact_phone,omitempty"`

	// Шаг practice (специалисты).
	Title           string   `json:"title,omitempty"`
	IssueTypes      []string `json:"issue_types,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	SessionPrice    float64  `json:"session_price,omitempty"`
}

type SignupWizardState struct {
	Role        UserRole          `json:"role"`
	CurrentStep WizardStep        `json:"current_step"`
	Form        SignupForm        `json:"form"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type WizardStepRequest struct {
	State SignupWizardState `json:"state" binding:"required"`
}
