package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
)

// ReminderServiceImpl периодически рассылает напоминания о завтрашних
// сессиях. Повторная отправка исключается отметкой reminder_sent_at.
type ReminderServiceImpl struct {
	repo     repository.AppointmentRepository
	notifier NotificationService
	interval time.Duration
	logger   *zap.Logger
}

func NewReminderService(
	repo repository.AppointmentRepository,
	notifier NotificationService,
	interval time.Duration,
	logger *zap.Logger,
) *ReminderServiceImpl {
	if interval <= 0 {
		interval = time.Hour
	}

	return &ReminderServiceImpl{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run блокирует до отмены контекста, запускается в отдельной горутине.
func (s *ReminderServiceImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SendDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SendDue(ctx)
		}
	}
}

// SendDue обрабатывает один проход: запланированные на завтра сессии без
// отметки об отправке.
func (s *ReminderServiceImpl) SendDue(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)

	appointments, err := s.repo.ListForReminder(ctx, tomorrow)
	if err != nil {
		s.logger.Error("ошибка выборки сессий для напоминаний", zap.Error(err))
		return
	}

	for _, appointment := range appointments {
		if appointment.ClientEmail == "" {
			continue
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

		if err := s.notifier.SendAppointmentEmail(ctx, domain.EmailKindReminder, data); err != nil {
			s.logger.Warn("не удалось отправить напоминание",
				zap.Int64("appointmentId", appointment.ID),
				zap.Error(err))
			continue
		}

		if err := s.repo.MarkReminderSent(ctx, appointment.ID); err != nil {
			s.logger.Error("не удалось отметить отправку напоминания",
				zap.Int64("appointmentId", appointment.ID),
				zap.Error(err))
		}
	}
}
