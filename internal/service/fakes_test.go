package service

import (
	"context"
	"errors"
	"time"

	"mindwell/internal/domain"
	"mindwell/pkg/cache"
)

// Фейки репозиториев для юнит-тестов сервисов. Поведение задаётся
// функциональными полями, незаданные методы возвращают "не найдено".

var errFakeNotFound = errors.New("не найдено")

type fakeUserRepo struct {
	CreateFn     func(ctx context.Context, dto domain.CreateUserDTO) (int64, error)
	GetByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, dto)
	}
	return 0, errFakeNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, errFakeNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.GetByEmailFn != nil {
		return f.GetByEmailFn(ctx, email)
	}
	return nil, errFakeNotFound
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return nil, errFakeNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return nil, nil
}

type fakeAuthRepo struct {
	Sessions map[string]domain.Session
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{Sessions: make(map[string]domain.Session)}
}

func (f *fakeAuthRepo) CreateSession(ctx context.Context, session domain.Session) error {
	f.Sessions[session.RefreshToken] = session
	return nil
}

func (f *fakeAuthRepo) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	session, ok := f.Sessions[refreshToken]
	if !ok {
		return nil, errFakeNotFound
	}
	return &session, nil
}

func (f *fakeAuthRepo) DeleteSession(ctx context.Context, id string) error {
	for token, session := range f.Sessions {
		if session.ID == id {
			delete(f.Sessions, token)
		}
	}
	return nil
}

func (f *fakeAuthRepo) DeleteSessionsByUserID(ctx context.Context, userID int64) error {
	for token, session := range f.Sessions {
		if session.UserID == userID {
			delete(f.Sessions, token)
		}
	}
	return nil
}

type fakeProfessionalRepo struct {
	CreateFn      func(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error)
	GetByIDFn     func(ctx context.Context, id int64) (*domain.Professional, error)
	GetByUserIDFn func(ctx context.Context, userID int64) (*domain.Professional, error)
}

func (f *fakeProfessionalRepo) Create(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, userID, dto)
	}
	return 0, errFakeNotFound
}

func (f *fakeProfessionalRepo) GetByID(ctx context.Context, id int64) (*domain.Professional, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, errFakeNotFound
}

func (f *fakeProfessionalRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error) {
	if f.GetByUserIDFn != nil {
		return f.GetByUserIDFn(ctx, userID)
	}
	return nil, errFakeNotFound
}

func (f *fakeProfessionalRepo) Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error {
	return nil
}

func (f *fakeProfessionalRepo) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeProfessionalRepo) List(ctx context.Context, filter domain.ProfessionalFilter) ([]domain.Professional, int, error) {
	return nil, 0, nil
}

func (f *fakeProfessionalRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	return nil
}

func (f *fakeProfessionalRepo) UpdateLicenseDocument(ctx context.Context, id int64, documentURL string) error {
	return nil
}

type fakeAppointmentRepo struct {
	CreateFn           func(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error)
	GetByIDFn          func(ctx context.Context, id int64) (*domain.Appointment, error)
	UpdateFn           func(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error
	ListFn             func(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	BookedTimesFn      func(ctx context.Context, professionalID int64, date time.Time) ([]string, error)
	AcceptFn           func(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error
	RefuseFn           func(ctx context.Context, id int64) error
	TransitionStatusFn func(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error
	CancelFn           func(ctx context.Context, id int64, by domain.CancelledBy) error
	ListForReminderFn  func(ctx context.Context, date time.Time) ([]domain.Appointment, error)
	MarkReminderSentFn func(ctx context.Context, id int64) error
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, clientID, dto, routing)
	}
	return 1, nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, errFakeNotFound
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, id, dto)
	}
	return nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	return 0, nil
}

func (f *fakeAppointmentRepo) BookedTimes(ctx context.Context, professionalID int64, date time.Time) ([]string, error) {
	if f.BookedTimesFn != nil {
		return f.BookedTimesFn(ctx, professionalID, date)
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) Accept(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error {
	if f.AcceptFn != nil {
		return f.AcceptFn(ctx, id, professionalID, date, timeStr)
	}
	return nil
}

func (f *fakeAppointmentRepo) Refuse(ctx context.Context, id int64) error {
	if f.RefuseFn != nil {
		return f.RefuseFn(ctx, id)
	}
	return nil
}

func (f *fakeAppointmentRepo) TransitionStatus(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
	if f.TransitionStatusFn != nil {
		return f.TransitionStatusFn(ctx, id, to, from...)
	}
	return nil
}

func (f *fakeAppointmentRepo) Cancel(ctx context.Context, id int64, by domain.CancelledBy) error {
	if f.CancelFn != nil {
		return f.CancelFn(ctx, id, by)
	}
	return nil
}

func (f *fakeAppointmentRepo) MarkReminderSent(ctx context.Context, id int64) error {
	if f.MarkReminderSentFn != nil {
		return f.MarkReminderSentFn(ctx, id)
	}
	return nil
}

func (f *fakeAppointmentRepo) ListForReminder(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	if f.ListForReminderFn != nil {
		return f.ListForReminderFn(ctx, date)
	}
	return nil, nil
}

type fakeAvailabilityRepo struct {
	Template *domain.WorkingHoursTemplate
	Calls    int
	UpsertFn func(ctx context.Context, template domain.WorkingHoursTemplate) (int64, error)
}

func (f *fakeAvailabilityRepo) GetByProfessionalID(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error) {
	f.Calls++
	return f.Template, nil
}

func (f *fakeAvailabilityRepo) Upsert(ctx context.Context, template domain.WorkingHoursTemplate) (int64, error) {
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, template)
	}
	return 1, nil
}

type fakeMedicalProfileRepo struct {
	Profile   *domain.MedicalProfile
	UpsertFn  func(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error
	Upserted  int64
	UpsertDTO domain.UpdateMedicalProfileDTO
}

func (f *fakeMedicalProfileRepo) GetByClientID(ctx context.Context, clientID int64) (*domain.MedicalProfile, error) {
	return f.Profile, nil
}

func (f *fakeMedicalProfileRepo) Upsert(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error {
	f.Upserted = clientID
	f.UpsertDTO = dto
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, clientID, dto)
	}
	return nil
}

type fakeGuestBookingRepo struct {
	Booking    *domain.GuestBooking
	MarkPaidFn func(ctx context.Context, reference string) error
}

func (f *fakeGuestBookingRepo) Create(ctx context.Context, booking domain.GuestBooking) (int64, error) {
	return 1, nil
}

func (f *fakeGuestBookingRepo) GetByReference(ctx context.Context, reference string) (*domain.GuestBooking, error) {
	if f.Booking == nil {
		return nil, errFakeNotFound
	}
	return f.Booking, nil
}

func (f *fakeGuestBookingRepo) SetPaymentIntent(ctx context.Context, reference, paymentIntentID string) error {
	return nil
}

func (f *fakeGuestBookingRepo) MarkPaid(ctx context.Context, reference string) error {
	if f.MarkPaidFn != nil {
		return f.MarkPaidFn(ctx, reference)
	}
	return nil
}

// fakeNotifier копит отправленные письма по вариантам.
type fakeNotifier struct {
	Appointment []domain.EmailKind
	Guest       []domain.EmailKind
	LastData    domain.AppointmentEmailData
}

func (f *fakeNotifier) SendAppointmentEmail(ctx context.Context, kind domain.EmailKind, data domain.AppointmentEmailData) error {
	f.Appointment = append(f.Appointment, kind)
	f.LastData = data
	return nil
}

func (f *fakeNotifier) SendGuestBookingEmail(ctx context.Context, kind domain.EmailKind, data domain.GuestBookingEmailData) error {
	f.Guest = append(f.Guest, kind)
	return nil
}

// stubAvailability подменяет расчёт слотов в тестах жизненного цикла записей.
type stubAvailability struct {
	Day         *domain.DayAvailability
	Invalidated []string
}

func (s *stubAvailability) Get(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error) {
	return nil, nil
}

func (s *stubAvailability) Update(ctx context.Context, professionalID int64, dto domain.UpdateAvailabilityDTO) (*domain.WorkingHoursTemplate, error) {
	return nil, nil
}

func (s *stubAvailability) ComputeSlots(ctx context.Context, professionalID int64, date time.Time) (*domain.DayAvailability, error) {
	if s.Day != nil {
		return s.Day, nil
	}
	return &domain.DayAvailability{Slots: []domain.AvailableSlot{}}, nil
}

func (s *stubAvailability) InvalidateDay(ctx context.Context, professionalID int64, date time.Time) {
	s.Invalidated = append(s.Invalidated, slotCacheKey(professionalID, date))
}

type fakeAuthService struct {
	RegisterFn func(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Registered []domain.RegisterRequest
}

func (f *fakeAuthService) Register(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
	f.Registered = append(f.Registered, dto)
	if f.RegisterFn != nil {
		return f.RegisterFn(ctx, dto)
	}
	return 1, nil
}

func (f *fakeAuthService) Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error) {
	return nil, errFakeNotFound
}

func (f *fakeAuthService) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	return nil, errFakeNotFound
}

func (f *fakeAuthService) Logout(ctx context.Context, refreshToken string) error { return nil }

func (f *fakeAuthService) ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error) {
	return 0, "", errFakeNotFound
}

// fakeCache хранит значения в памяти, без TTL.
type fakeCache struct {
	values map[string]string
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	f.values[key] = value
	f.sets++
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) Close() error { return nil }
