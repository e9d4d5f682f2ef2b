package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"go.uber.org/zap"

	"mindwell/config"
	"mindwell/internal/domain"
	"mindwell/internal/repository"
)

var ErrPaymentsNotConfigured = errors.New("платежи не настроены")

type GuestBookingServiceImpl struct {
	repo             repository.GuestBookingRepository
	appointmentRepo  repository.AppointmentRepository
	professionalRepo repository.ProfessionalRepository
	notifier         NotificationService
	cfg              config.StripeConfig
	baseURL          string
	logger           *zap.Logger
}

func NewGuestBookingService(
	repo repository.GuestBookingRepository,
	appointmentRepo repository.AppointmentRepository,
	professionalRepo repository.ProfessionalRepository,
	notifier NotificationService,
	cfg config.StripeConfig,
	baseURL string,
	logger *zap.Logger,
) *GuestBookingServiceImpl {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}

	return &GuestBookingServiceImpl{
		repo:             repo,
		appointmentRepo:  appointmentRepo,
		professionalRepo: professionalRepo,
		notifier:         notifier,
		cfg:              cfg,
		baseURL:          baseURL,
		logger:           logger,
	}
}

// Create регистрирует гостевую заявку без аккаунта. Запись создаётся в
// pending, гостю уходит письмо со ссылкой на оплату.
func (s *GuestBookingServiceImpl) Create(ctx context.Context, dto domain.CreateGuestBookingDTO) (*domain.GuestBooking, error) {
	if s.cfg.SecretKey == "" {
		return nil, ErrPaymentsNotConfigured
	}

	amount := 0.0

	if dto.ProfessionalID != nil {
		professional, err := s.professionalRepo.GetByID(ctx, *dto.ProfessionalID)
		if err != nil {
			s.logger.Error("специалист не найден", zap.Int64("professionalId", *dto.ProfessionalID), zap.Error(err))
			return nil, errors.New("специалист не найден")
		}
		amount = professional.SessionPrice
	}

	appointmentID, err := s.appointmentRepo.Create(ctx, 0, domain.CreateAppointmentDTO{
		ProfessionalID: dto.ProfessionalID,
		Type:           dto.Type,
		TherapyType:    dto.TherapyType,
		BookingFor:     domain.BookingForSelf,
		IssueType:      dto.IssueType,
		Notes:          dto.Notes,
	}, guestRouting(dto.ProfessionalID))
	if err != nil {
		s.logger.Error("ошибка создания гостевой записи", zap.Error(err))
		return nil, errors.New("ошибка при создании записи")
	}

	booking := domain.GuestBooking{
		Reference:     newBookingReference(),
		AppointmentID: appointmentID,
		Name:          dto.Name,
		Email:         dto.Email,
		Phone:         dto.Phone,
		Amount:        amount,
		Currency:      strings.ToUpper(s.cfg.Currency),
	}

	id, err := s.repo.Create(ctx, booking)
	if err != nil {
		s.logger.Error("ошибка сохранения гостевой брони", zap.Error(err))
		return nil, errors.New("ошибка при создании записи")
	}

	booking.ID = id
	booking.CreatedAt = time.Now()

	if err := s.createPaymentIntent(ctx, &booking); err != nil {
		return nil, err
	}

	data := domain.GuestBookingEmailData{
		GuestName:  booking.Name,
		GuestEmail: booking.Email,
		Reference:  booking.Reference,
		Amount:     booking.Amount,
		Currency:   booking.Currency,
		PaymentURL: fmt.Sprintf("%s/guest/%s/pay", s.baseURL, booking.Reference),
	}

	if err := s.notifier.SendGuestBookingEmail(ctx, domain.EmailKindGuestPending, data); err != nil {
		s.logger.Warn("не удалось отправить письмо гостю", zap.String("reference", booking.Reference), zap.Error(err))
	}

	return &booking, nil
}

func (s *GuestBookingServiceImpl) GetByReference(ctx context.Context, reference string) (*domain.GuestBooking, error) {
	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		s.logger.Error("гостевая бронь не найдена", zap.String("reference", reference), zap.Error(err))
		return nil, errors.New("бронь не найдена")
	}

	return booking, nil
}

// ConfirmPayment помечает бронь оплаченной. Вызывается из вебхука Stripe
// после события payment_intent.succeeded.
func (s *GuestBookingServiceImpl) ConfirmPayment(ctx context.Context, reference string) error {
	booking, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		s.logger.Error("гостевая бронь не найдена", zap.String("reference", reference), zap.Error(err))
		return errors.New("бронь не найдена")
	}

	err = s.repo.MarkPaid(ctx, reference)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Повторная доставка вебхука, бронь уже оплачена.
		return nil
	}
	if err != nil {
		s.logger.Error("ошибка подтверждения оплаты", zap.String("reference", reference), zap.Error(err))
		return errors.New("ошибка при подтверждении оплаты")
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, booking.AppointmentID)

	data := domain.GuestBookingEmailData{
		GuestName:  booking.Name,
		GuestEmail: booking.Email,
		Reference:  booking.Reference,
		Amount:     booking.Amount,
		Currency:   booking.Currency,
	}

	if err == nil {
		data.Date = appointment.Date.Format("2006-01-02")
		data.Time = appointment.Time
	}

	if err := s.notifier.SendGuestBookingEmail(ctx, domain.EmailKindGuestPaid, data); err != nil {
		s.logger.Warn("не удалось отправить подтверждение оплаты", zap.String("reference", reference), zap.Error(err))
	}

	return nil
}

func (s *GuestBookingServiceImpl) createPaymentIntent(ctx context.Context, booking *domain.GuestBooking) error {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(booking.Amount * 100)),
		Currency: stripe.String(strings.ToLower(booking.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(booking.Email),
	}
	params.IdempotencyKey = stripe.String("guest:" + booking.Reference)
	params.AddMetadata("booking_reference", booking.Reference)

	intent, err := paymentintent.New(params)
	if err != nil {
		s.logger.Error("ошибка создания платёжного намерения", zap.String("reference", booking.Reference), zap.Error(err))
		return errors.New("ошибка при создании платежа")
	}

	if err := s.repo.SetPaymentIntent(ctx, booking.Reference, intent.ID); err != nil {
		s.logger.Error("ошибка сохранения платёжного намерения", zap.String("reference", booking.Reference), zap.Error(err))
		return errors.New("ошибка при создании платежа")
	}

	booking.PaymentIntentID = intent.ID

	return nil
}

func guestRouting(professionalID *int64) domain.RoutingStatus {
	if professionalID != nil {
		return domain.RoutingStatusProposed
	}
	return domain.RoutingStatusGeneral
}

func newBookingReference() string {
	return "MW-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
}
