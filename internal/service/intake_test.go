package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"mindwell/internal/domain"
)

func newIntakeService(profiles *fakeMedicalProfileRepo, appointments *fakeAppointmentRepo, professionals *fakeProfessionalRepo, auth *fakeAuthService) *IntakeServiceImpl {
	users := &fakeUserRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.UserRoleClient}, nil
		},
	}
	return NewIntakeService(profiles, appointments, professionals, users, auth, zap.NewNop())
}

func validClientForm() domain.SignupForm {
	return domain.SignupForm{
		Email:           "anna@example.com",
		Password:        "correcthorse1",
		PasswordConfirm: "correcthorse1",
		FirstName:       "Анна",
		LastName:        "Иванова",
		Phone:           "+79991234567",
		Symptoms:        []string{"anxiety"},
		Goals:           []string{"sleep"},
	}
}

func TestWizardAccountStepRejectsShortPassword(t *testing.T) {
	auth := &fakeAuthService{}
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, auth)

	form := validClientForm()
	form.Password = "short12"
	form.PasswordConfirm = "short12"

	state, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleClient,
		CurrentStep: domain.WizardStepAccount,
		Form:        form,
	})
	if err != nil {
		t.Fatalf("ProcessWizardStep failed: %v", err)
	}

	if state.Errors["password"] == "" {
		t.Error("expected password error for 7-character password")
	}
	if state.CurrentStep != domain.WizardStepAccount {
		t.Errorf("expected to stay on account step, got %s", state.CurrentStep)
	}
	if len(auth.Registered) != 0 {
		t.Error("registration must not happen before the review step")
	}
}

func TestWizardAccountStepPasswordMismatch(t *testing.T) {
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, &fakeAuthService{})

	form := validClientForm()
	form.PasswordConfirm = "differenthorse1"

	state, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleClient,
		CurrentStep: domain.WizardStepAccount,
		Form:        form,
	})
	if err != nil {
		t.Fatalf("ProcessWizardStep failed: %v", err)
	}

	if state.Errors["password_confirm"] == "" {
		t.Error("expected mismatch error")
	}
}

func TestWizardClientStepsAdvanceInOrder(t *testing.T) {
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, &fakeAuthService{})

	state := domain.SignupWizardState{
		Role:        domain.UserRoleClient,
		CurrentStep: domain.WizardStepAccount,
		Form:        validClientForm(),
	}

	for _, want := range []domain.WizardStep{domain.WizardStepContact, domain.WizardStepMedical, domain.WizardStepReview} {
		next, err := svc.ProcessWizardStep(context.Background(), state)
		if err != nil {
			t.Fatalf("step %s failed: %v", state.CurrentStep, err)
		}
		if len(next.Errors) != 0 {
			t.Fatalf("step %s: unexpected errors %v", state.CurrentStep, next.Errors)
		}
		if next.CurrentStep != want {
			t.Fatalf("expected next step %s, got %s", want, next.CurrentStep)
		}
		state = *next
	}
}

func TestWizardReviewFinalizesClient(t *testing.T) {
	auth := &fakeAuthService{
		RegisterFn: func(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
			return 42, nil
		},
	}
	profiles := &fakeMedicalProfileRepo{}
	svc := newIntakeService(profiles, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, auth)

	state, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleClient,
		CurrentStep: domain.WizardStepReview,
		Form:        validClientForm(),
	})
	if err != nil {
		t.Fatalf("ProcessWizardStep failed: %v", err)
	}

	if state.CurrentStep != domain.WizardStepDone {
		t.Errorf("expected done, got %s", state.CurrentStep)
	}
	if len(auth.Registered) != 1 {
		t.Fatalf("expected one registration, got %d", len(auth.Registered))
	}
	if auth.Registered[0].Role != domain.UserRoleClient {
		t.Errorf("expected client role, got %s", auth.Registered[0].Role)
	}
	if profiles.Upserted != 42 {
		t.Errorf("expected medical profile for user 42, got %d", profiles.Upserted)
	}
}

func TestWizardReviewFinalizesProfessional(t *testing.T) {
	auth := &fakeAuthService{
		RegisterFn: func(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
			return 77, nil
		},
	}

	var createdFor int64
	var created domain.CreateProfessionalDTO
	professionals := &fakeProfessionalRepo{
		CreateFn: func(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error) {
			createdFor = userID
			created = dto
			return 5, nil
		},
	}
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, professionals, auth)

	form := validClientForm()
	form.Title = "Клинический психолог"
	form.IssueTypes = []string{"anxiety", "depression"}
	form.ExperienceYears = 6
	form.SessionPrice = 80

	state, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleProfessional,
		CurrentStep: domain.WizardStepReview,
		Form:        form,
	})
	if err != nil {
		t.Fatalf("ProcessWizardStep failed: %v", err)
	}

	if state.CurrentStep != domain.WizardStepDone {
		t.Errorf("expected done, got %s", state.CurrentStep)
	}
	if createdFor != 77 {
		t.Errorf("expected professional profile for user 77, got %d", createdFor)
	}
	if created.Title != form.Title || len(created.IssueTypes) != 2 {
		t.Errorf("unexpected professional dto: %+v", created)
	}
}

func TestWizardReviewRerunsSkippedSteps(t *testing.T) {
	auth := &fakeAuthService{}
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, auth)

	form := validClientForm()
	form.Email = "not-an-email"

	state, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleClient,
		CurrentStep: domain.WizardStepReview,
		Form:        form,
	})
	if err != nil {
		t.Fatalf("ProcessWizardStep failed: %v", err)
	}

	if state.Errors["email"] == "" {
		t.Error("expected review to surface account step errors")
	}
	if len(auth.Registered) != 0 {
		t.Error("finalize must not run with validation errors")
	}
}

func TestWizardUnknownRole(t *testing.T) {
	svc := newIntakeService(&fakeMedicalProfileRepo{}, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, &fakeAuthService{})

	_, err := svc.ProcessWizardStep(context.Background(), domain.SignupWizardState{
		Role:        domain.UserRoleAdmin,
		CurrentStep: domain.WizardStepAccount,
	})
	if err == nil {
		t.Fatal("expected error for admin signup")
	}
}

func TestGetMedicalProfileOwnerOnly(t *testing.T) {
	profiles := &fakeMedicalProfileRepo{Profile: &domain.MedicalProfile{ID: 1, ClientID: 5}}
	svc := newIntakeService(profiles, &fakeAppointmentRepo{}, &fakeProfessionalRepo{}, &fakeAuthService{})

	if _, err := svc.GetMedicalProfile(context.Background(), 5, 5, domain.UserRoleClient); err != nil {
		t.Errorf("owner access failed: %v", err)
	}

	if _, err := svc.GetMedicalProfile(context.Background(), 5, 6, domain.UserRoleClient); !errors.Is(err, ErrProfileAccessDenied) {
		t.Errorf("expected ErrProfileAccessDenied for another client, got %v", err)
	}

	if _, err := svc.GetMedicalProfile(context.Background(), 5, 1, domain.UserRoleAdmin); err != nil {
		t.Errorf("admin access failed: %v", err)
	}
}

func TestGetMedicalProfileProfessionalNeedsActiveSession(t *testing.T) {
	profiles := &fakeMedicalProfileRepo{Profile: &domain.MedicalProfile{ID: 1, ClientID: 5}}
	professionals := &fakeProfessionalRepo{
		GetByUserIDFn: func(ctx context.Context, userID int64) (*domain.Professional, error) {
			return &domain.Professional{ID: 3, UserID: userID}, nil
		},
	}

	status := domain.AppointmentStatusCompleted
	appointments := &fakeAppointmentRepo{
		ListFn: func(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
			return []domain.Appointment{{ID: 1, Status: status}}, nil
		},
	}
	svc := newIntakeService(profiles, appointments, professionals, &fakeAuthService{})

	if _, err := svc.GetMedicalProfile(context.Background(), 5, 9, domain.UserRoleProfessional); !errors.Is(err, ErrProfileAccessDenied) {
		t.Errorf("expected denial without active session, got %v", err)
	}

	status = domain.AppointmentStatusScheduled
	if _, err := svc.GetMedicalProfile(context.Background(), 5, 9, domain.UserRoleProfessional); err != nil {
		t.Errorf("expected access with scheduled session, got %v", err)
	}
}
