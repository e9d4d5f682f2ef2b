package domain

import (
	"errors"
	"time"
)

// Допустимые длительности берутся из фиксированных наборов,
// произвольные значения не принимаются.
var (
	SessionDurations = []int{30, 45, 50, 60, 90, 120}
	BreakDurations   = []int{0, 5, 10, 15, 30}
)

var (
	ErrInvalidWorkHours = errors.New("время начала должно быть раньше времени окончания")
	ErrInvalidDuration  = errors.New("недопустимая длительность сессии или перерыва")
	ErrInvalidDayCount  = errors.New("шаблон должен содержать ровно 7 дней")
)

type DayEntry struct {
	DayName   string `json:"day_name"`
	IsWorkDay bool   `json:"is_work_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WorkingHoursTemplate struct {
	ID                     int64      `json:"id"`
	ProfessionalID         int64      `json:"professional_id"`
	Days                   []DayEntry `json:"days"`
	SessionDurationMinutes int        `json:"session_duration_minutes"`
	BreakDurationMinutes   int        `json:"break_duration_minutes"`
	FirstDayOfWeek         string     `json:"first_day_of_week"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Validate проверяет инварианты шаблона: 7 дней, start < end для рабочих дней,
// длительности из допустимых наборов.
func (t *WorkingHoursTemplate) Validate() error {
	if len(t.Days) != 7 {
		return ErrInvalidDayCount
	}

	if !containsInt(SessionDurations, t.SessionDurationMinutes) || !containsInt(BreakDurations, t.BreakDurationMinutes) {
		return ErrInvalidDuration
	}

	for _, day := range t.Days {
		if !day.IsWorkDay {
			continue
		}

		start, err := time.Parse("15:04", day.StartTime)
		if err != nil {
			return ErrInvalidWorkHours
		}

		end, err := time.Parse("15:04", day.EndTime)
		if err != nil {
			return ErrInvalidWorkHours
		}

		if !start.Before(end) {
			return ErrInvalidWorkHours
		}
	}

	return nil
}

// DayFor возвращает запись шаблона для дня недели указанной даты.
func (t *WorkingHoursTemplate) DayFor(date time.Time) *DayEntry {
	name := date.Weekday().String()
	for i := range t.Days {
		if t.Days[i].DayName == name {
			return &t.Days[i]
		}
	}
	return nil
}

type UpdateAvailabilityDTO struct {
	Days                   []DayEntry `json:"days" binding:"required,len=7"`
	SessionDurationMinutes int        `json:"session_duration_minutes" binding:"required,oneof=30 45 50 60 90 120"`
	BreakDurationMinutes   int        `json:"break_duration_minutes" binding:"oneof=0 5 10 15 30"`
	FirstDayOfWeek         string     `json:"first_day_of_week" binding:"required,oneof=Monday Sunday"`
}

// AvailableSlot — производное значение, не хранится в БД.
type AvailableSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type DayAvailability struct {
	Available bool            `json:"available"`
	Slots     []AvailableSlot `json:"slots"`
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
