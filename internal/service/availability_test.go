package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/domain"
)

func weekTemplate(session, brk int, start, end string, workDays ...string) *domain.WorkingHoursTemplate {
	work := make(map[string]bool, len(workDays))
	for _, day := range workDays {
		work[day] = true
	}

	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	days := make([]domain.DayEntry, 0, 7)
	for _, name := range names {
		days = append(days, domain.DayEntry{
			DayName:   name,
			IsWorkDay: work[name],
			StartTime: start,
			EndTime:   end,
		})
	}

	return &domain.WorkingHoursTemplate{
		ID:                     1,
		ProfessionalID:         1,
		Days:                   days,
		SessionDurationMinutes: session,
		BreakDurationMinutes:   brk,
		FirstDayOfWeek:         "Monday",
	}
}

// 2026-09-07 — понедельник.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestComputeSlotsGrid(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(50, 10, "09:00", "17:00", "Monday")}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	// Шаг сетки 60 минут, последняя сессия с перерывом заканчивается в 17:00.
	if len(day.Slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(day.Slots))
	}
	if day.Slots[0].Time != "09:00" {
		t.Errorf("first slot: expected 09:00, got %s", day.Slots[0].Time)
	}
	if day.Slots[7].Time != "16:00" {
		t.Errorf("last slot: expected 16:00, got %s", day.Slots[7].Time)
	}
	if !day.Available {
		t.Error("expected day to be available")
	}
	for _, slot := range day.Slots {
		if !slot.Available {
			t.Errorf("slot %s: expected available", slot.Time)
		}
	}
}

func TestComputeSlotsPartialTailDropped(t *testing.T) {
	// 09:00-17:00 при шаге 75 минут: последний слот 15:15, хвост 16:30-17:00
	// в сетку не попадает.
	repo := &fakeAvailabilityRepo{Template: weekTemplate(60, 15, "09:00", "17:00", "Monday")}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if len(day.Slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(day.Slots))
	}
	if day.Slots[5].Time != "15:15" {
		t.Errorf("last slot: expected 15:15, got %s", day.Slots[5].Time)
	}
}

func TestComputeSlotsZeroBreak(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(30, 0, "09:00", "10:00", "Monday")}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if len(day.Slots) != 2 {
		t.Fatalf("expected 2 back-to-back slots, got %d", len(day.Slots))
	}
	if day.Slots[0].Time != "09:00" || day.Slots[1].Time != "09:30" {
		t.Errorf("unexpected slot times: %+v", day.Slots)
	}
}

func TestComputeSlotsNonWorkDay(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(50, 10, "09:00", "17:00", "Tuesday")}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if day.Available {
		t.Error("expected non-work day to be unavailable")
	}
	if len(day.Slots) != 0 {
		t.Errorf("expected no slots, got %d", len(day.Slots))
	}
}

func TestComputeSlotsNoTemplate(t *testing.T) {
	repo := &fakeAvailabilityRepo{}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if day.Available || len(day.Slots) != 0 {
		t.Errorf("expected empty availability, got %+v", day)
	}
}

func TestComputeSlotsBookedCollision(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(50, 10, "09:00", "12:00", "Monday")}
	appointments := &fakeAppointmentRepo{
		BookedTimesFn: func(ctx context.Context, professionalID int64, date time.Time) ([]string, error) {
			return []string{"10:00"}, nil
		},
	}
	svc := NewAvailabilityService(repo, appointments, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if len(day.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(day.Slots))
	}

	for _, slot := range day.Slots {
		want := slot.Time != "10:00"
		if slot.Available != want {
			t.Errorf("slot %s: available=%v, want %v", slot.Time, slot.Available, want)
		}
	}
	if !day.Available {
		t.Error("expected day to stay available with free slots left")
	}
}

func TestComputeSlotsGridDoesNotRealign(t *testing.T) {
	// Бронь на время вне сетки не сдвигает слоты.
	repo := &fakeAvailabilityRepo{Template: weekTemplate(50, 10, "09:00", "12:00", "Monday")}
	appointments := &fakeAppointmentRepo{
		BookedTimesFn: func(ctx context.Context, professionalID int64, date time.Time) ([]string, error) {
			return []string{"09:30"}, nil
		},
	}
	svc := NewAvailabilityService(repo, appointments, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	for i, want := range []string{"09:00", "10:00", "11:00"} {
		if day.Slots[i].Time != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, day.Slots[i].Time)
		}
		if !day.Slots[i].Available {
			t.Errorf("slot %s: expected available, off-grid booking must not block it", want)
		}
	}
}

func TestComputeSlotsAllBookedDayUnavailable(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(60, 0, "09:00", "11:00", "Monday")}
	appointments := &fakeAppointmentRepo{
		BookedTimesFn: func(ctx context.Context, professionalID int64, date time.Time) ([]string, error) {
			return []string{"09:00", "10:00"}, nil
		},
	}
	svc := NewAvailabilityService(repo, appointments, &fakeProfessionalRepo{}, nil, 0, zap.NewNop())

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}

	if day.Available {
		t.Error("expected fully booked day to be unavailable")
	}
}

func TestComputeSlotsUsesCache(t *testing.T) {
	repo := &fakeAvailabilityRepo{Template: weekTemplate(50, 10, "09:00", "17:00", "Monday")}
	slotCache := newFakeCache()
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, slotCache, time.Minute, zap.NewNop())

	if _, err := svc.ComputeSlots(context.Background(), 1, monday); err != nil {
		t.Fatalf("first ComputeSlots failed: %v", err)
	}
	if slotCache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", slotCache.sets)
	}

	day, err := svc.ComputeSlots(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("second ComputeSlots failed: %v", err)
	}
	if repo.Calls != 1 {
		t.Errorf("expected template read once, got %d", repo.Calls)
	}
	if len(day.Slots) != 8 {
		t.Errorf("cached result: expected 8 slots, got %d", len(day.Slots))
	}

	svc.InvalidateDay(context.Background(), 1, monday)
	if _, err := svc.ComputeSlots(context.Background(), 1, monday); err != nil {
		t.Fatalf("ComputeSlots after invalidation failed: %v", err)
	}
	if repo.Calls != 2 {
		t.Errorf("expected template reread after invalidation, got %d calls", repo.Calls)
	}
}

func TestUpdateRejectsInvalidTemplate(t *testing.T) {
	professionals := &fakeProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Professional, error) {
			return &domain.Professional{ID: id}, nil
		},
	}
	svc := NewAvailabilityService(&fakeAvailabilityRepo{}, &fakeAppointmentRepo{}, professionals, nil, 0, zap.NewNop())

	valid := weekTemplate(50, 10, "09:00", "17:00", "Monday")

	cases := []struct {
		name string
		dto  domain.UpdateAvailabilityDTO
		want error
	}{
		{
			name: "шесть дней вместо семи",
			dto: domain.UpdateAvailabilityDTO{
				Days:                   valid.Days[:6],
				SessionDurationMinutes: 50,
				BreakDurationMinutes:   10,
				FirstDayOfWeek:         "Monday",
			},
			want: domain.ErrInvalidDayCount,
		},
		{
			name: "произвольная длительность сессии",
			dto: domain.UpdateAvailabilityDTO{
				Days:                   valid.Days,
				SessionDurationMinutes: 40,
				BreakDurationMinutes:   10,
				FirstDayOfWeek:         "Monday",
			},
			want: domain.ErrInvalidDuration,
		},
		{
			name: "начало позже конца",
			dto: domain.UpdateAvailabilityDTO{
				Days:                   weekTemplate(50, 10, "18:00", "09:00", "Monday").Days,
				SessionDurationMinutes: 50,
				BreakDurationMinutes:   10,
				FirstDayOfWeek:         "Monday",
			},
			want: domain.ErrInvalidWorkHours,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Update(context.Background(), 1, tc.dto); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUpdatePersistsTemplate(t *testing.T) {
	professionals := &fakeProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Professional, error) {
			return &domain.Professional{ID: id}, nil
		},
	}
	repo := &fakeAvailabilityRepo{}
	svc := NewAvailabilityService(repo, &fakeAppointmentRepo{}, professionals, nil, 0, zap.NewNop())

	valid := weekTemplate(50, 10, "09:00", "17:00", "Monday")
	template, err := svc.Update(context.Background(), 7, domain.UpdateAvailabilityDTO{
		Days:                   valid.Days,
		SessionDurationMinutes: 50,
		BreakDurationMinutes:   10,
		FirstDayOfWeek:         "Monday",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if template.ProfessionalID != 7 {
		t.Errorf("expected professional 7, got %d", template.ProfessionalID)
	}
	if template.ID != 1 {
		t.Errorf("expected upserted id 1, got %d", template.ID)
	}
}
