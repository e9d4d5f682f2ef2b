package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/domain"
)

type Repositories struct {
	User           UserRepository
	Auth           AuthRepository
	Professional   ProfessionalRepository
	Appointment    AppointmentRepository
	Availability   AvailabilityRepository
	MedicalProfile MedicalProfileRepository
	GuestBooking   GuestBookingRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Auth:           NewAuthRepository(db),
		Professional:   NewProfessionalRepository(db),
		Appointment:    NewAppointmentRepository(db),
		Availability:   NewAvailabilityRepository(db),
		MedicalProfile: NewMedicalProfileRepository(db),
		GuestBooking:   NewGuestBookingRepository(db),
	}
}

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUserID(ctx context.Context, userID int64) error
}

type ProfessionalRepository interface {
	Create(ctx context.Context, userID int64, professional domain.CreateProfessionalDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Professional, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error)
	Update(ctx context.Context, id int64, professional domain.UpdateProfessionalDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.ProfessionalFilter) ([]domain.Professional, int, error)

	UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error
	UpdateLicenseDocument(ctx context.Context, id int64, documentURL string) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Update(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error)

	// BookedTimes возвращает занятые времена "HH:MM" специалиста на дату,
	// отменённые записи не учитываются.
	BookedTimes(ctx context.Context, professionalID int64, date time.Time) ([]string, error)

	// Accept выполняет условное обновление: запись переводится в scheduled
	// только если она всё ещё в pending. Возвращает ErrStatusConflict,
	// если запись уже принял другой специалист.
	Accept(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error

	// Refuse возвращает предложенную запись в общий пул (routing=general),
	// только из routing=proposed при status=pending.
	Refuse(ctx context.Context, id int64) error

	// TransitionStatus переводит запись в to одним условным UPDATE,
	// если текущий статус входит в from.
	TransitionStatus(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error

	Cancel(ctx context.Context, id int64, by domain.CancelledBy) error

	MarkReminderSent(ctx context.Context, id int64) error
	ListForReminder(ctx context.Context, date time.Time) ([]domain.Appointment, error)
}

type AvailabilityRepository interface {
	GetByProfessionalID(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error)
	Upsert(ctx context.Context, template domain.WorkingHoursTemplate) (int64, error)
}

type MedicalProfileRepository interface {
	GetByClientID(ctx context.Context, clientID int64) (*domain.MedicalProfile, error)
	Upsert(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error
}

type GuestBookingRepository interface {
	Create(ctx context.Context, booking domain.GuestBooking) (int64, error)
	GetByReference(ctx context.Context, reference string) (*domain.GuestBooking, error)
	SetPaymentIntent(ctx context.Context, reference, paymentIntentID string) error
	MarkPaid(ctx context.Context, reference string) error
}
