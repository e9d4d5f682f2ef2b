package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
	"mindwell/pkg/events"
	"mindwell/pkg/metrics"
)

var (
	ErrSlotUnavailable     = errors.New("выбранное время уже занято")
	ErrStatusConflict      = errors.New("запись уже обработана другим специалистом")
	ErrInvalidTransition   = errors.New("недопустимый переход статуса записи")
	ErrMeetingLinkRequired = errors.New("для видеосессии требуется ссылка на встречу")
)

type AppointmentServiceImpl struct {
	repo             repository.AppointmentRepository
	professionalRepo repository.ProfessionalRepository
	userRepo         repository.UserRepository
	availability     AvailabilityService
	notifier         NotificationService
	producer         events.Producer
	logger           *zap.Logger
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	professionalRepo repository.ProfessionalRepository,
	userRepo repository.UserRepository,
	availability AvailabilityService,
	notifier NotificationService,
	producer events.Producer,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:             repo,
		professionalRepo: professionalRepo,
		userRepo:         userRepo,
		availability:     availability,
		notifier:         notifier,
		producer:         producer,
		logger:           logger,
	}
}

// Create регистрирует заявку в статусе pending. При указанном специалисте
// заявка попадает в его персональную очередь (routing=proposed), иначе в
// общий пул (routing=general).
func (s *AppointmentServiceImpl) Create(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO) (int64, error) {
	if _, err := s.userRepo.GetByID(ctx, clientID); err != nil {
		s.logger.Error("клиент не найден", zap.Int64("clientId", clientID), zap.Error(err))
		return 0, errors.New("клиент не найден")
	}

	routing := domain.RoutingStatusGeneral

	if dto.ProfessionalID != nil {
		if _, err := s.professionalRepo.GetByID(ctx, *dto.ProfessionalID); err != nil {
			s.logger.Error("специалист не найден", zap.Int64("professionalId", *dto.ProfessionalID), zap.Error(err))
			return 0, errors.New("специалист не найден")
		}

		routing = domain.RoutingStatusProposed

		// Если клиент сразу выбрал время, слот проверяется уже здесь.
		if dto.Date != nil && dto.Time != "" {
			if err := s.checkSlot(ctx, *dto.ProfessionalID, *dto.Date, dto.Time); err != nil {
				return 0, err
			}
		}
	}

	id, err := s.repo.Create(ctx, clientID, dto, routing)
	if err != nil {
		s.logger.Error("ошибка создания записи", zap.Error(err))
		return 0, errors.New("ошибка при создании записи")
	}

	s.publishEvent(ctx, "appointment.created", id, domain.AppointmentStatusPending, routing)

	return id, nil
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("запись не найдена", zap.Int64("id", id), zap.Error(err))
		return nil, errors.New("запись не найдена")
	}

	return appointment, nil
}

// Update меняет только детали записи. Статус через PATCH не меняется:
// им управляют исключительно Accept, Refuse, Start, Complete, NoShow и Cancel.
func (s *AppointmentServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error {
	if dto.Status != nil {
		return ErrInvalidTransition
	}

	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("запись для обновления не найдена", zap.Int64("id", id), zap.Error(err))
		return errors.New("запись не найдена")
	}

	if appointment.Status.IsTerminal() {
		return ErrInvalidTransition
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления записи", zap.Int64("id", id), zap.Error(err))
		return errors.New("ошибка при обновлении записи")
	}

	return nil
}

func (s *AppointmentServiceImpl) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, int, error) {
	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка записей", zap.Error(err))
		return nil, 0, errors.New("ошибка при получении списка записей")
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчёта записей", zap.Error(err))
		return nil, 0, errors.New("ошибка при получении списка записей")
	}

	return appointments, total, nil
}

// ListProposed возвращает персональную очередь специалиста: заявки,
// адресованные именно ему и ещё не принятые.
func (s *AppointmentServiceImpl) ListProposed(ctx context.Context, professionalID int64) ([]domain.Appointment, error) {
	status := domain.AppointmentStatusPending
	routing := domain.RoutingStatusProposed
	filter := domain.AppointmentFilter{
		ProfessionalID: &professionalID,
		Status:         &status,
		RoutingStatus:  &routing,
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения предложенных заявок", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("ошибка при получении заявок")
	}

	return appointments, nil
}

// ListGeneral возвращает общий пул: заявки без адресата, доступные любому
// специалисту.
func (s *AppointmentServiceImpl) ListGeneral(ctx context.Context) ([]domain.Appointment, error) {
	status := domain.AppointmentStatusPending
	routing := domain.RoutingStatusGeneral
	filter := domain.AppointmentFilter{
		Status:        &status,
		RoutingStatus: &routing,
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения общего пула заявок", zap.Error(err))
		return nil, errors.New("ошибка при получении заявок")
	}

	return appointments, nil
}

// Accept переводит заявку pending -> scheduled и закрепляет её за
// специалистом. Гонку двух специалистов за одну заявку из общего пула
// разрешает условный UPDATE: проигравший получает ErrStatusConflict.
func (s *AppointmentServiceImpl) Accept(ctx context.Context, id, professionalID int64, dto domain.AcceptAppointmentDTO) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("заявка не найдена", zap.Int64("id", id), zap.Error(err))
		return errors.New("запись не найдена")
	}

	if appointment.Status != domain.AppointmentStatusPending {
		return ErrStatusConflict
	}

	if appointment.RoutingStatus == domain.RoutingStatusProposed &&
		(appointment.ProfessionalID == nil || *appointment.ProfessionalID != professionalID) {
		return errors.New("заявка адресована другому специалисту")
	}

	date, err := time.Parse("2006-01-02", dto.Date)
	if err != nil {
		return errors.New("недопустимый формат даты")
	}

	if err := s.checkSlot(ctx, professionalID, date, dto.Time); err != nil {
		return err
	}

	err = s.repo.Accept(ctx, id, professionalID, date, dto.Time)
	if errors.Is(err, repository.ErrStatusConflict) {
		metrics.AppointmentTransitions.WithLabelValues("accept", "conflict").Inc()
		return ErrStatusConflict
	}
	if err != nil {
		s.logger.Error("ошибка принятия заявки", zap.Int64("id", id), zap.Error(err))
		metrics.AppointmentTransitions.WithLabelValues("accept", "error").Inc()
		return errors.New("ошибка при принятии заявки")
	}

	metrics.AppointmentTransitions.WithLabelValues("accept", "ok").Inc()
	s.availability.InvalidateDay(ctx, professionalID, date)
	s.publishEvent(ctx, "appointment.scheduled", id, domain.AppointmentStatusScheduled, appointment.RoutingStatus)
	s.notifyScheduled(ctx, id)

	return nil
}

// Refuse возвращает адресную заявку в общий пул. Отказ письмом не
// сопровождается: заявка остаётся активной, клиенту нечего предпринять.
func (s *AppointmentServiceImpl) Refuse(ctx context.Context, id, professionalID int64) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("заявка не найдена", zap.Int64("id", id), zap.Error(err))
		return errors.New("запись не найдена")
	}

	if appointment.ProfessionalID == nil || *appointment.ProfessionalID != professionalID {
		return errors.New("заявка адресована другому специалисту")
	}

	err = s.repo.Refuse(ctx, id)
	if errors.Is(err, repository.ErrStatusConflict) {
		metrics.AppointmentTransitions.WithLabelValues("refuse", "conflict").Inc()
		return ErrStatusConflict
	}
	if err != nil {
		s.logger.Error("ошибка отклонения заявки", zap.Int64("id", id), zap.Error(err))
		metrics.AppointmentTransitions.WithLabelValues("refuse", "error").Inc()
		return errors.New("ошибка при отклонении заявки")
	}

	metrics.AppointmentTransitions.WithLabelValues("refuse", "ok").Inc()
	s.publishEvent(ctx, "appointment.refused", id, domain.AppointmentStatusPending, domain.RoutingStatusGeneral)

	return nil
}

// Start переводит сессию scheduled -> ongoing. Видеосессия без ссылки на
// встречу начаться не может.
func (s *AppointmentServiceImpl) Start(ctx context.Context, id int64) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("запись не найдена", zap.Int64("id", id), zap.Error(err))
		return errors.New("запись не найдена")
	}

	if appointment.Type == domain.AppointmentTypeVideo && appointment.MeetingLink == "" {
		return ErrMeetingLinkRequired
	}

	return s.transition(ctx, id, "start", domain.AppointmentStatusOngoing, domain.AppointmentStatusScheduled)
}

func (s *AppointmentServiceImpl) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, "complete", domain.AppointmentStatusCompleted, domain.AppointmentStatusOngoing)
}

// NoShow фиксирует неявку как по запланированной, так и по уже начатой сессии.
func (s *AppointmentServiceImpl) NoShow(ctx context.Context, id int64) error {
	return s.transition(ctx, id, "no_show", domain.AppointmentStatusNoShow,
		domain.AppointmentStatusScheduled, domain.AppointmentStatusOngoing)
}

// Cancel допустим из любого незавершённого статуса.
func (s *AppointmentServiceImpl) Cancel(ctx context.Context, id int64, by domain.CancelledBy) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("запись не найдена", zap.Int64("id", id), zap.Error(err))
		return errors.New("запись не найдена")
	}

	if appointment.Status.IsTerminal() {
		return ErrInvalidTransition
	}

	err = s.repo.Cancel(ctx, id, by)
	if errors.Is(err, repository.ErrStatusConflict) {
		metrics.AppointmentTransitions.WithLabelValues("cancel", "conflict").Inc()
		return ErrInvalidTransition
	}
	if err != nil {
		s.logger.Error("ошибка отмены записи", zap.Int64("id", id), zap.Error(err))
		metrics.AppointmentTransitions.WithLabelValues("cancel", "error").Inc()
		return errors.New("ошибка при отмене записи")
	}

	metrics.AppointmentTransitions.WithLabelValues("cancel", "ok").Inc()

	if appointment.ProfessionalID != nil {
		s.availability.InvalidateDay(ctx, *appointment.ProfessionalID, appointment.Date)
	}

	s.publishEvent(ctx, "appointment.cancelled", id, domain.AppointmentStatusCancelled, appointment.RoutingStatus)
	s.notifyCancelled(ctx, appointment, by)

	return nil
}

func (s *AppointmentServiceImpl) transition(ctx context.Context, id int64, name string, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
	err := s.repo.TransitionStatus(ctx, id, to, from...)
	if errors.Is(err, repository.ErrStatusConflict) {
		metrics.AppointmentTransitions.WithLabelValues(name, "conflict").Inc()
		return ErrInvalidTransition
	}
	if err != nil {
		s.logger.Error("ошибка перехода статуса",
			zap.Int64("id", id),
			zap.Any("from", from),
			zap.String("to", string(to)),
			zap.Error(err))
		metrics.AppointmentTransitions.WithLabelValues(name, "error").Inc()
		return errors.New("ошибка при обновлении статуса записи")
	}

	metrics.AppointmentTransitions.WithLabelValues(name, "ok").Inc()
	s.publishEvent(ctx, "appointment."+string(to), id, to, "")

	return nil
}

// checkSlot сверяет запрошенное время с расчётной сеткой слотов.
func (s *AppointmentServiceImpl) checkSlot(ctx context.Context, professionalID int64, date time.Time, timeStr string) error {
	day, err := s.availability.ComputeSlots(ctx, professionalID, date)
	if err != nil {
		return err
	}

	for _, slot := range day.Slots {
		if slot.Time == timeStr {
			if !slot.Available {
				return ErrSlotUnavailable
			}
			return nil
		}
	}

	return ErrSlotUnavailable
}

func (s *AppointmentServiceImpl) notifyScheduled(ctx context.Context, id int64) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("не удалось перечитать запись для рассылки", zap.Int64("id", id), zap.Error(err))
		return
	}

	data := domain.AppointmentEmailData{
		RecipientName:    appointment.ClientName,
		RecipientEmail:   appointment.ClientEmail,
		ClientName:       appointment.ClientName,
		ProfessionalName: appointment.ProfessionalName,
		Date:             appointment.Date.Format("2006-01-02"),
		Time:             appointment.Time,
		Type:             appointment.Type,
		TherapyType:      appointment.TherapyType,
		MeetingLink:      appointment.MeetingLink,
		Location:         appointment.Location,
	}

	if err := s.notifier.SendAppointmentEmail(ctx, domain.EmailKindConfirmation, data); err != nil {
		s.logger.Warn("не удалось отправить подтверждение клиенту", zap.Int64("id", id), zap.Error(err))
	}

	if appointment.ProfessionalID != nil {
		if professional, err := s.professionalRepo.GetByID(ctx, *appointment.ProfessionalID); err == nil {
			notice := data
			notice.RecipientName = professional.User.FirstName
			notice.RecipientEmail = professional.User.Email

			if err := s.notifier.SendAppointmentEmail(ctx, domain.EmailKindProfessionalNotice, notice); err != nil {
				s.logger.Warn("не удалось отправить уведомление специалисту", zap.Int64("id", id), zap.Error(err))
			}
		}
	}
}

// notifyCancelled уведомляет противоположную сторону: при отмене клиентом
// письмо уходит специалисту, иначе клиенту.
func (s *AppointmentServiceImpl) notifyCancelled(ctx context.Context, appointment *domain.Appointment, by domain.CancelledBy) {
	data := domain.AppointmentEmailData{
		ClientName:       appointment.ClientName,
		ProfessionalName: appointment.ProfessionalName,
		Date:             appointment.Date.Format("2006-01-02"),
		Time:             appointment.Time,
		Type:             appointment.Type,
		TherapyType:      appointment.TherapyType,
		CancelledBy:      string(by),
	}

	if by == domain.CancelledByClient {
		if appointment.ProfessionalID == nil {
			return
		}

		professional, err := s.professionalRepo.GetByID(ctx, *appointment.ProfessionalID)
		if err != nil {
			s.logger.Warn("специалист для уведомления об отмене не найден",
				zap.Int64("id", appointment.ID), zap.Error(err))
			return
		}

		data.RecipientName = professional.User.FirstName
		data.RecipientEmail = professional.User.Email
	} else {
		if appointment.ClientEmail == "" {
			return
		}

		data.RecipientName = appointment.ClientName
		data.RecipientEmail = appointment.ClientEmail
	}

	if err := s.notifier.SendAppointmentEmail(ctx, domain.EmailKindCancellation, data); err != nil {
		s.logger.Warn("не удалось отправить уведомление об отмене", zap.Int64("id", appointment.ID), zap.Error(err))
	}
}

func (s *AppointmentServiceImpl) publishEvent(ctx context.Context, event string, id int64, status domain.AppointmentStatus, routing domain.RoutingStatus) {
	if s.producer == nil {
		return
	}

	payload, err := json.Marshal(domain.AppointmentEvent{
		Event:         event,
		AppointmentID: id,
		Status:        status,
		RoutingStatus: routing,
		OccurredAt:    time.Now(),
	})
	if err != nil {
		return
	}

	if err := s.producer.Publish(ctx, []byte(strconv.FormatInt(id, 10)), payload); err != nil {
		s.logger.Warn("не удалось опубликовать событие", zap.String("event", event), zap.Error(err))
	}
}
