package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
)

func openDay(times ...string) *domain.DayAvailability {
	day := &domain.DayAvailability{Available: true}
	for _, t := range times {
		day.Slots = append(day.Slots, domain.AvailableSlot{Time: t, Available: true})
	}
	return day
}

func pendingAppointment(professionalID *int64, routing domain.RoutingStatus) *domain.Appointment {
	return &domain.Appointment{
		ID:             10,
		ClientID:       5,
		ProfessionalID: professionalID,
		Status:         domain.AppointmentStatusPending,
		RoutingStatus:  routing,
		Type:           domain.AppointmentTypeVideo,
		TherapyType:    domain.TherapyTypeSolo,
		Date:           monday,
		Time:           "10:00",
		ClientName:     "Анна Иванова",
		ClientEmail:    "anna@example.com",
	}
}

func newAppointmentService(repo *fakeAppointmentRepo, professionals *fakeProfessionalRepo, availability AvailabilityService, notifier NotificationService) *AppointmentServiceImpl {
	users := &fakeUserRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.UserRoleClient}, nil
		},
	}
	return NewAppointmentService(repo, professionals, users, availability, notifier, nil, zap.NewNop())
}

func TestCreateRoutesToProposedQueue(t *testing.T) {
	var gotRouting domain.RoutingStatus
	repo := &fakeAppointmentRepo{
		CreateFn: func(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error) {
			gotRouting = routing
			return 1, nil
		},
	}
	professionals := &fakeProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Professional, error) {
			return &domain.Professional{ID: id}, nil
		},
	}
	svc := newAppointmentService(repo, professionals, &stubAvailability{Day: openDay("10:00")}, &fakeNotifier{})

	professionalID := int64(3)
	_, err := svc.Create(context.Background(), 5, domain.CreateAppointmentDTO{
		ProfessionalID: &professionalID,
		Type:           domain.AppointmentTypeVideo,
		TherapyType:    domain.TherapyTypeSolo,
		BookingFor:     domain.BookingForSelf,
		IssueType:      "anxiety",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gotRouting != domain.RoutingStatusProposed {
		t.Errorf("expected proposed routing, got %s", gotRouting)
	}
}

func TestCreateWithoutProfessionalGoesToGeneralPool(t *testing.T) {
	var gotRouting domain.RoutingStatus
	repo := &fakeAppointmentRepo{
		CreateFn: func(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error) {
			gotRouting = routing
			return 1, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), 5, domain.CreateAppointmentDTO{
		Type:        domain.AppointmentTypeVideo,
		TherapyType: domain.TherapyTypeSolo,
		BookingFor:  domain.BookingForSelf,
		IssueType:   "burnout",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gotRouting != domain.RoutingStatusGeneral {
		t.Errorf("expected general routing, got %s", gotRouting)
	}
}

func TestAcceptSchedulesAndNotifies(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.ProfessionalName = "Мария Петрова"

	accepted := false
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			if accepted {
				scheduled := *appointment
				scheduled.Status = domain.AppointmentStatusScheduled
				return &scheduled, nil
			}
			return appointment, nil
		},
		AcceptFn: func(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error {
			accepted = true
			return nil
		},
	}
	professionals := &fakeProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Professional, error) {
			return &domain.Professional{ID: id, User: domain.User{FirstName: "Мария", Email: "maria@example.com"}}, nil
		},
	}
	notifier := &fakeNotifier{}
	availability := &stubAvailability{Day: openDay("10:00", "11:00")}
	svc := newAppointmentService(repo, professionals, availability, notifier)

	err := svc.Accept(context.Background(), 10, professionalID, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:00"})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if !accepted {
		t.Fatal("expected conditional accept to be issued")
	}
	if len(availability.Invalidated) != 1 {
		t.Errorf("expected slot cache invalidation, got %d", len(availability.Invalidated))
	}

	// Клиенту подтверждение, специалисту уведомление.
	if len(notifier.Appointment) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(notifier.Appointment))
	}
	if notifier.Appointment[0] != domain.EmailKindConfirmation {
		t.Errorf("expected confirmation first, got %s", notifier.Appointment[0])
	}
	if notifier.Appointment[1] != domain.EmailKindProfessionalNotice {
		t.Errorf("expected professional notice second, got %s", notifier.Appointment[1])
	}
}

func TestAcceptRaceLoserGetsConflict(t *testing.T) {
	appointment := pendingAppointment(nil, domain.RoutingStatusGeneral)
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		AcceptFn: func(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error {
			return repository.ErrStatusConflict
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{Day: openDay("10:00")}, &fakeNotifier{})

	err := svc.Accept(context.Background(), 10, 3, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:00"})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
}

func TestAcceptAlreadyScheduled(t *testing.T) {
	appointment := pendingAppointment(nil, domain.RoutingStatusGeneral)
	appointment.Status = domain.AppointmentStatusScheduled

	acceptCalled := false
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		AcceptFn: func(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error {
			acceptCalled = true
			return nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{Day: openDay("10:00")}, &fakeNotifier{})

	err := svc.Accept(context.Background(), 10, 3, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:00"})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
	if acceptCalled {
		t.Error("accept must not reach the repository for non-pending appointments")
	}
}

func TestAcceptProposedToAnotherProfessional(t *testing.T) {
	addressee := int64(8)
	appointment := pendingAppointment(&addressee, domain.RoutingStatusProposed)
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{Day: openDay("10:00")}, &fakeNotifier{})

	if err := svc.Accept(context.Background(), 10, 3, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:00"}); err == nil {
		t.Fatal("expected error accepting someone else's proposed appointment")
	}
}

func TestAcceptTakenSlot(t *testing.T) {
	appointment := pendingAppointment(nil, domain.RoutingStatusGeneral)
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	day := &domain.DayAvailability{
		Available: true,
		Slots:     []domain.AvailableSlot{{Time: "10:00", Available: false}},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{Day: day}, &fakeNotifier{})

	err := svc.Accept(context.Background(), 10, 3, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:00"})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestAcceptTimeOutsideGrid(t *testing.T) {
	appointment := pendingAppointment(nil, domain.RoutingStatusGeneral)
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{Day: openDay("10:00", "11:00")}, &fakeNotifier{})

	err := svc.Accept(context.Background(), 10, 3, domain.AcceptAppointmentDTO{Date: "2026-09-07", Time: "10:30"})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable for off-grid time, got %v", err)
	}
}

func TestRefuseReturnsToGeneralPool(t *testing.T) {
	addressee := int64(3)
	appointment := pendingAppointment(&addressee, domain.RoutingStatusProposed)

	refused := false
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		RefuseFn: func(ctx context.Context, id int64) error {
			refused = true
			return nil
		},
	}
	notifier := &fakeNotifier{}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, notifier)

	if err := svc.Refuse(context.Background(), 10, 3); err != nil {
		t.Fatalf("Refuse failed: %v", err)
	}
	if !refused {
		t.Fatal("expected refuse to be issued")
	}

	// Отказ не сопровождается письмом клиенту.
	if len(notifier.Appointment) != 0 {
		t.Errorf("expected no emails on refuse, got %d", len(notifier.Appointment))
	}
}

func TestRefuseByAnotherProfessional(t *testing.T) {
	addressee := int64(8)
	appointment := pendingAppointment(&addressee, domain.RoutingStatusProposed)
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.Refuse(context.Background(), 10, 3); err == nil {
		t.Fatal("expected error refusing someone else's appointment")
	}
}

func TestStartVideoRequiresMeetingLink(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.Status = domain.AppointmentStatusScheduled
	appointment.Type = domain.AppointmentTypeVideo
	appointment.MeetingLink = ""

	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.Start(context.Background(), 10); !errors.Is(err, ErrMeetingLinkRequired) {
		t.Fatalf("expected ErrMeetingLinkRequired, got %v", err)
	}
}

func TestStartInPersonWithoutLink(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.Status = domain.AppointmentStatusScheduled
	appointment.Type = domain.AppointmentTypeInPerson

	var gotFrom []domain.AppointmentStatus
	var gotTo domain.AppointmentStatus
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		TransitionStatusFn: func(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.Start(context.Background(), 10); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(gotFrom) != 1 || gotFrom[0] != domain.AppointmentStatusScheduled || gotTo != domain.AppointmentStatusOngoing {
		t.Errorf("expected scheduled->ongoing, got %v->%s", gotFrom, gotTo)
	}
}

func TestCompleteRequiresOngoing(t *testing.T) {
	repo := &fakeAppointmentRepo{
		TransitionStatusFn: func(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
			if len(from) != 1 || from[0] != domain.AppointmentStatusOngoing {
				t.Errorf("expected transition from ongoing, got %v", from)
			}
			return repository.ErrStatusConflict
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.Complete(context.Background(), 10); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNoShowFromScheduledOrOngoing(t *testing.T) {
	var gotFrom []domain.AppointmentStatus
	var gotTo domain.AppointmentStatus
	repo := &fakeAppointmentRepo{
		TransitionStatusFn: func(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.NoShow(context.Background(), 10); err != nil {
		t.Fatalf("NoShow failed: %v", err)
	}
	if gotTo != domain.AppointmentStatusNoShow {
		t.Errorf("expected transition to no_show, got %s", gotTo)
	}

	allowed := map[domain.AppointmentStatus]bool{}
	for _, status := range gotFrom {
		allowed[status] = true
	}
	if len(gotFrom) != 2 || !allowed[domain.AppointmentStatusScheduled] || !allowed[domain.AppointmentStatusOngoing] {
		t.Errorf("expected no_show allowed from scheduled and ongoing, got %v", gotFrom)
	}
}

func TestUpdateRejectsStatusChange(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)

	updated := false
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		UpdateFn: func(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error {
			updated = true
			return nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	// Запись видеосессии без ссылки: прямой перевод в ongoing через PATCH
	// обошёл бы проверку Start.
	status := domain.AppointmentStatusOngoing
	err := svc.Update(context.Background(), 10, domain.UpdateAppointmentDTO{Status: &status})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if updated {
		t.Error("expected update to be rejected before repository call")
	}

	notes := "перенесли адрес"
	if err := svc.Update(context.Background(), 10, domain.UpdateAppointmentDTO{Notes: &notes}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated {
		t.Error("expected non-status update to reach repository")
	}
}

func TestCancelTerminalAppointment(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.Status = domain.AppointmentStatusCompleted

	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
	}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, &stubAvailability{}, &fakeNotifier{})

	if err := svc.Cancel(context.Background(), 10, domain.CancelledByClient); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelScheduledNotifiesClient(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.Status = domain.AppointmentStatusScheduled

	var gotBy domain.CancelledBy
	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		CancelFn: func(ctx context.Context, id int64, by domain.CancelledBy) error {
			gotBy = by
			return nil
		},
	}
	notifier := &fakeNotifier{}
	availability := &stubAvailability{}
	svc := newAppointmentService(repo, &fakeProfessionalRepo{}, availability, notifier)

	if err := svc.Cancel(context.Background(), 10, domain.CancelledByProfessional); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if gotBy != domain.CancelledByProfessional {
		t.Errorf("expected cancelled_by professional, got %s", gotBy)
	}
	if len(availability.Invalidated) != 1 {
		t.Errorf("expected slot cache invalidation, got %d", len(availability.Invalidated))
	}
	if len(notifier.Appointment) != 1 || notifier.Appointment[0] != domain.EmailKindCancellation {
		t.Errorf("expected one cancellation email, got %v", notifier.Appointment)
	}
	if notifier.LastData.RecipientEmail != "anna@example.com" {
		t.Errorf("expected cancellation email to the client, got %s", notifier.LastData.RecipientEmail)
	}
}

func TestCancelByClientNotifiesProfessional(t *testing.T) {
	professionalID := int64(3)
	appointment := pendingAppointment(&professionalID, domain.RoutingStatusProposed)
	appointment.Status = domain.AppointmentStatusScheduled

	repo := &fakeAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Appointment, error) {
			return appointment, nil
		},
		CancelFn: func(ctx context.Context, id int64, by domain.CancelledBy) error {
			return nil
		},
	}
	professionals := &fakeProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.Professional, error) {
			return &domain.Professional{
				ID:   id,
				User: domain.User{FirstName: "Мария", Email: "maria@mindwell.ru"},
			}, nil
		},
	}
	notifier := &fakeNotifier{}
	svc := newAppointmentService(repo, professionals, &stubAvailability{}, notifier)

	if err := svc.Cancel(context.Background(), 10, domain.CancelledByClient); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if len(notifier.Appointment) != 1 || notifier.Appointment[0] != domain.EmailKindCancellation {
		t.Fatalf("expected one cancellation email, got %v", notifier.Appointment)
	}
	if notifier.LastData.RecipientEmail != "maria@mindwell.ru" {
		t.Errorf("expected cancellation email to the professional, got %s", notifier.LastData.RecipientEmail)
	}
	if notifier.LastData.CancelledBy != string(domain.CancelledByClient) {
		t.Errorf("expected cancelled_by client in email data, got %s", notifier.LastData.CancelledBy)
	}
}
