package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
	"mindwell/pkg/cache"
)

type AvailabilityServiceImpl struct {
	repo             repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	professionalRepo repository.ProfessionalRepository
	cache            cache.Cache
	slotTTL          time.Duration
	logger           *zap.Logger
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	professionalRepo repository.ProfessionalRepository,
	slotCache cache.Cache,
	slotTTL time.Duration,
	logger *zap.Logger,
) *AvailabilityServiceImpl {
	return &AvailabilityServiceImpl{
		repo:             repo,
		appointmentRepo:  appointmentRepo,
		professionalRepo: professionalRepo,
		cache:            slotCache,
		slotTTL:          slotTTL,
		logger:           logger,
	}
}

func (s *AvailabilityServiceImpl) Get(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error) {
	template, err := s.repo.GetByProfessionalID(ctx, professionalID)
	if err != nil {
		s.logger.Error("ошибка получения шаблона рабочих часов", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("ошибка при получении расписания")
	}

	return template, nil
}

func (s *AvailabilityServiceImpl) Update(ctx context.Context, professionalID int64, dto domain.UpdateAvailabilityDTO) (*domain.WorkingHoursTemplate, error) {
	if _, err := s.professionalRepo.GetByID(ctx, professionalID); err != nil {
		s.logger.Error("специалист не найден", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("специалист не найден")
	}

	template := domain.WorkingHoursTemplate{
		ProfessionalID:         professionalID,
		Days:                   dto.Days,
		SessionDurationMinutes: dto.SessionDurationMinutes,
		BreakDurationMinutes:   dto.BreakDurationMinutes,
		FirstDayOfWeek:         dto.FirstDayOfWeek,
	}

	if err := template.Validate(); err != nil {
		return nil, err
	}

	id, err := s.repo.Upsert(ctx, template)
	if err != nil {
		s.logger.Error("ошибка сохранения шаблона рабочих часов", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("ошибка при сохранении расписания")
	}

	template.ID = id

	// Шаблон изменился, кэшированные слоты специалиста больше не действительны.
	s.invalidateSlots(ctx, professionalID)

	return &template, nil
}

// ComputeSlots строит сетку слотов специалиста на дату. Слоты идут от начала
// рабочего дня с шагом (сессия + перерыв); слот попадает в сетку, только если
// сессия вместе с перерывом укладывается до конца рабочего дня. Занятые
// времена помечаются как недоступные, сама сетка от бронирований не сдвигается.
func (s *AvailabilityServiceImpl) ComputeSlots(ctx context.Context, professionalID int64, date time.Time) (*domain.DayAvailability, error) {
	cacheKey := slotCacheKey(professionalID, date)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var day domain.DayAvailability
			if err := json.Unmarshal([]byte(cached), &day); err == nil {
				return &day, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("ошибка чтения кэша слотов", zap.Error(err))
		}
	}

	template, err := s.repo.GetByProfessionalID(ctx, professionalID)
	if err != nil {
		s.logger.Error("ошибка получения шаблона рабочих часов", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("ошибка при получении расписания")
	}

	day := &domain.DayAvailability{Available: false, Slots: []domain.AvailableSlot{}}

	if template == nil {
		return day, nil
	}

	entry := template.DayFor(date)
	if entry == nil || !entry.IsWorkDay {
		return day, nil
	}

	start, err := parseMinutes(entry.StartTime)
	if err != nil {
		return nil, domain.ErrInvalidWorkHours
	}

	end, err := parseMinutes(entry.EndTime)
	if err != nil {
		return nil, domain.ErrInvalidWorkHours
	}

	booked, err := s.appointmentRepo.BookedTimes(ctx, professionalID, date)
	if err != nil {
		s.logger.Error("ошибка получения занятых слотов", zap.Int64("professionalId", professionalID), zap.Error(err))
		return nil, errors.New("ошибка при расчёте слотов")
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		bookedSet[t] = struct{}{}
	}

	step := template.SessionDurationMinutes + template.BreakDurationMinutes

	for t := start; t+step <= end; t += step {
		slotTime := formatMinutes(t)
		_, taken := bookedSet[slotTime]
		day.Slots = append(day.Slots, domain.AvailableSlot{
			Time:      slotTime,
			Available: !taken,
		})
	}

	for _, slot := range day.Slots {
		if slot.Available {
			day.Available = true
			break
		}
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(day); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(encoded), s.slotTTL); err != nil {
				s.logger.Warn("ошибка записи кэша слотов", zap.Error(err))
			}
		}
	}

	return day, nil
}

// InvalidateDay сбрасывает кэш слотов на конкретную дату. Вызывается при
// бронировании и отмене.
func (s *AvailabilityServiceImpl) InvalidateDay(ctx context.Context, professionalID int64, date time.Time) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, slotCacheKey(professionalID, date)); err != nil {
		s.logger.Warn("ошибка сброса кэша слотов", zap.Error(err))
	}
}

func (s *AvailabilityServiceImpl) invalidateSlots(ctx context.Context, professionalID int64) {
	if s.cache == nil {
		return
	}

	// Шаблон действует на все даты вперёд, сбрасываем ближайший горизонт.
	keys := make([]string, 0, 60)
	today := time.Now()
	for i := 0; i < 60; i++ {
		keys = append(keys, slotCacheKey(professionalID, today.AddDate(0, 0, i)))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("ошибка сброса кэша слотов", zap.Error(err))
	}
}

func slotCacheKey(professionalID int64, date time.Time) string {
	return fmt.Sprintf("slots:%d:%s", professionalID, date.Format("2006-01-02"))
}

func parseMinutes(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
