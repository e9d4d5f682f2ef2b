package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mindwell/config"
	"mindwell/internal/domain"
	"mindwell/internal/repository"
	"mindwell/internal/storage"
	"mindwell/pkg/cache"
	"mindwell/pkg/events"
	"mindwell/pkg/search"
)

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Cache       cache.Cache
	Producer    events.Producer
	Search      search.Client
}

type Services struct {
	User         UserService
	Auth         AuthService
	Professional ProfessionalService
	Appointment  AppointmentService
	Availability AvailabilityService
	Intake       IntakeService
	Notification NotificationService
	GuestBooking GuestBookingService
	Reminder     ReminderService
}

func NewServices(deps Deps) *Services {
	notification := NewNotificationService(deps.Config.SMTP, deps.Config.BaseURL, deps.Logger)
	auth := NewAuthService(deps.Repos.Auth, deps.Repos.User, deps.Config.JWT, deps.Logger)
	availability := NewAvailabilityService(deps.Repos.Availability, deps.Repos.Appointment, deps.Repos.Professional,
		deps.Cache, deps.Config.Redis.SlotTTL, deps.Logger)

	return &Services{
		User:         NewUserService(deps.Repos.User, deps.Repos.Auth, deps.Logger),
		Auth:         auth,
		Professional: NewProfessionalService(deps.Repos.Professional, deps.Repos.User, deps.FileStorage, deps.Search, deps.Logger),
		Availability: availability,
		Notification: notification,
		Appointment: NewAppointmentService(deps.Repos.Appointment, deps.Repos.Professional, deps.Repos.User,
			availability, notification, deps.Producer, deps.Logger),
		Intake: NewIntakeService(deps.Repos.MedicalProfile, deps.Repos.Appointment, deps.Repos.Professional,
			deps.Repos.User, auth, deps.Logger),
		GuestBooking: NewGuestBookingService(deps.Repos.GuestBooking, deps.Repos.Appointment, deps.Repos.Professional,
			notification, deps.Config.Stripe, deps.Config.BaseURL, deps.Logger),
		Reminder: NewReminderService(deps.Repos.Appointment, notification, deps.Config.ReminderInterval, deps.Logger),
	}
}

type UserService interface {
	Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthService interface {
	Register(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error)
}

type ProfessionalService interface {
	Create(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Professional, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error)
	Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.ProfessionalFilter) ([]domain.Professional, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Professional, error)

	UploadProfilePhoto(ctx context.Context, professionalID int64, photo []byte, filename string) (string, error)
	UploadLicenseDocument(ctx context.Context, professionalID int64, document []byte, filename string) (string, error)
}

type AppointmentService interface {
	Create(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Update(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, int, error)
	ListProposed(ctx context.Context, professionalID int64) ([]domain.Appointment, error)
	ListGeneral(ctx context.Context) ([]domain.Appointment, error)

	Accept(ctx context.Context, id, professionalID int64, dto domain.AcceptAppointmentDTO) error
	Refuse(ctx context.Context, id, professionalID int64) error
	Start(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	NoShow(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, by domain.CancelledBy) error
}

type AvailabilityService interface {
	Get(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error)
	Update(ctx context.Context, professionalID int64, dto domain.UpdateAvailabilityDTO) (*domain.WorkingHoursTemplate, error)
	ComputeSlots(ctx context.Context, professionalID int64, date time.Time) (*domain.DayAvailability, error)
	InvalidateDay(ctx context.Context, professionalID int64, date time.Time)
}

type IntakeService interface {
	GetMedicalProfile(ctx context.Context, clientID, requesterID int64, requesterRole domain.UserRole) (*domain.MedicalProfile, error)
	UpdateMedicalProfile(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error
	ProcessWizardStep(ctx context.Context, state domain.SignupWizardState) (*domain.SignupWizardState, error)
}

type NotificationService interface {
	SendAppointmentEmail(ctx context.Context, kind domain.EmailKind, data domain.AppointmentEmailData) error
	SendGuestBookingEmail(ctx context.Context, kind domain.EmailKind, data domain.GuestBookingEmailData) error
}

type GuestBookingService interface {
	Create(ctx context.Context, dto domain.CreateGuestBookingDTO) (*domain.GuestBooking, error)
	GetByReference(ctx context.Context, reference string) (*domain.GuestBooking, error)
	ConfirmPayment(ctx context.Context, reference string) error
}

type ReminderService interface {
	Run(ctx context.Context)
	SendDue(ctx context.Context)
}
