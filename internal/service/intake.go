package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
	"mindwell/pkg/validator"
)

var ErrProfileAccessDenied = errors.New("нет доступа к анкете клиента")

type IntakeServiceImpl struct {
	profileRepo      repository.MedicalProfileRepository
	appointmentRepo  repository.AppointmentRepository
	professionalRepo repository.ProfessionalRepository
	userRepo         repository.UserRepository
	auth             AuthService
	logger           *zap.Logger
}

func NewIntakeService(
	profileRepo repository.MedicalProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	professionalRepo repository.ProfessionalRepository,
	userRepo repository.UserRepository,
	auth AuthService,
	logger *zap.Logger,
) *IntakeServiceImpl {
	return &IntakeServiceImpl{
		profileRepo:      profileRepo,
		appointmentRepo:  appointmentRepo,
		professionalRepo: professionalRepo,
		userRepo:         userRepo,
		auth:             auth,
		logger:           logger,
	}
}

// GetMedicalProfile отдаёт анкету владельцу и администратору всегда,
// специалисту — только при наличии активной сессии с этим клиентом.
func (s *IntakeServiceImpl) GetMedicalProfile(ctx context.Context, clientID, requesterID int64, requesterRole domain.UserRole) (*domain.MedicalProfile, error) {
	switch requesterRole {
	case domain.UserRoleAdmin:
	case domain.UserRoleClient:
		if requesterID != clientID {
			return nil, ErrProfileAccessDenied
		}
	case domain.UserRoleProfessional:
		allowed, err := s.hasActiveSession(ctx, clientID, requesterID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrProfileAccessDenied
		}
	default:
		return nil, ErrProfileAccessDenied
	}

	profile, err := s.profileRepo.GetByClientID(ctx, clientID)
	if err != nil {
		s.logger.Error("ошибка получения анкеты", zap.Int64("clientId", clientID), zap.Error(err))
		return nil, errors.New("ошибка при получении анкеты")
	}

	if profile == nil {
		return nil, errors.New("анкета не найдена")
	}

	return profile, nil
}

func (s *IntakeServiceImpl) UpdateMedicalProfile(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error {
	if _, err := s.userRepo.GetByID(ctx, clientID); err != nil {
		s.logger.Error("клиент не найден", zap.Int64("clientId", clientID), zap.Error(err))
		return errors.New("клиент не найден")
	}

	if err := s.profileRepo.Upsert(ctx, clientID, dto); err != nil {
		s.logger.Error("ошибка сохранения анкеты", zap.Int64("clientId", clientID), zap.Error(err))
		return errors.New("ошибка при сохранении анкеты")
	}

	return nil
}

// ProcessWizardStep валидирует данные текущего шага мастера регистрации.
// При успехе состояние продвигается на следующий шаг; подтверждение шага
// review создаёт аккаунт и профили. Валидация пароля выполняется на шаге
// account, до любых сетевых операций.
func (s *IntakeServiceImpl) ProcessWizardStep(ctx context.Context, state domain.SignupWizardState) (*domain.SignupWizardState, error) {
	steps, err := wizardSteps(state.Role)
	if err != nil {
		return nil, err
	}

	index := stepIndex(steps, state.CurrentStep)
	if index < 0 {
		return nil, errors.New("неизвестный шаг мастера регистрации")
	}

	state.Errors = s.validateStep(state.CurrentStep, state.Role, state.Form)
	if len(state.Errors) > 0 {
		return &state, nil
	}

	if state.CurrentStep == domain.WizardStepReview {
		if err := s.finalize(ctx, &state); err != nil {
			return nil, err
		}

		state.CurrentStep = domain.WizardStepDone
		return &state, nil
	}

	state.CurrentStep = steps[index+1]
	return &state, nil
}

func (s *IntakeServiceImpl) validateStep(step domain.WizardStep, role domain.UserRole, form domain.SignupForm) map[string]string {
	errs := make(map[string]string)

	switch step {
	case domain.WizardStepAccount:
		if !validator.ValidateEmail(form.Email) {
			errs["email"] = "некорректный email"
		}
		if !validator.ValidatePassword(form.Password) {
			errs["password"] = "пароль должен содержать не менее 8 символов"
		}
		if form.Password != form.PasswordConfirm {
			errs["password_confirm"] = "пароли не совпадают"
		}
	case domain.WizardStepContact:
		if !validator.ValidateNamePart(form.FirstName) {
			errs["first_name"] = "укажите имя"
		}
		if !validator.ValidateNamePart(form.LastName) {
			errs["last_name"] = "укажите фамилию"
		}
		if !validator.ValidatePhone(form.Phone) {
			errs["phone"] = "некорректный номер телефона"
		}
	case domain.WizardStepMedical:
		if len(form.Conditions) == 0 && len(form.Symptoms) == 0 {
			errs["symptoms"] = "укажите хотя бы одно состояние или симптом"
		}
		if form.EmergencyContactName != "" && !validator.ValidatePhone(form.EmergencyContactPhone) {
			errs["emergency_contact_phone"] = "некорректный номер экстренного контакта"
		}
	case domain.WizardStepPractice:
		if form.Title == "" {
			errs["title"] = "укажите специализацию"
		}
		if len(form.IssueTypes) == 0 {
			errs["issue_types"] = "укажите хотя бы одно направление работы"
		}
		if form.ExperienceYears < 0 {
			errs["experience_years"] = "стаж не может быть отрицательным"
		}
		if form.SessionPrice < 0 {
			errs["session_price"] = "стоимость не может быть отрицательной"
		}
	case domain.WizardStepReview:
		// Финальная сверка: повторяем проверки всех предыдущих шагов,
		// состояние могло прийти от клиента с пропущенными шагами.
		for _, prev := range mustWizardSteps(role) {
			if prev == domain.WizardStepReview {
				break
			}
			for field, msg := range s.validateStep(prev, role, form) {
				errs[field] = msg
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func (s *IntakeServiceImpl) finalize(ctx context.Context, state *domain.SignupWizardState) error {
	form := state.Form

	userID, err := s.auth.Register(ctx, domain.RegisterRequest{
		FirstName: validator.FormatName(form.FirstName),
		LastName:  validator.FormatName(form.LastName),
		Email:     form.Email,
		Phone:     validator.FormatPhone(form.Phone),
		Password:  form.Password,
		Role:      state.Role,
	})
	if err != nil {
		return err
	}

	switch state.Role {
	case domain.UserRoleClient:
		dto := domain.UpdateMedicalProfileDTO{
			Conditions:            &form.Conditions,
			Symptoms:              &form.Symptoms,
			Goals:                 &form.Goals,
			EmergencyContactName:  &form.EmergencyContactName,
			EmergencyContactPhone: &form.EmergencyContactPhone,
		}

		if err := s.profileRepo.Upsert(ctx, userID, dto); err != nil {
			s.logger.Error("ошибка создания анкеты при регистрации", zap.Int64("userId", userID), zap.Error(err))
			return errors.New("ошибка при сохранении анкеты")
		}
	case domain.UserRoleProfessional:
		_, err := s.professionalRepo.Create(ctx, userID, domain.CreateProfessionalDTO{
			Title:           form.Title,
			IssueTypes:      form.IssueTypes,
			TherapyTypes:    []domain.TherapyType{domain.TherapyTypeSolo},
			Formats:         []domain.AppointmentType{domain.AppointmentTypeVideo},
			ExperienceYears: form.ExperienceYears,
			SessionPrice:    form.SessionPrice,
		})
		if err != nil {
			s.logger.Error("ошибка создания профиля специалиста при регистрации", zap.Int64("userId", userID), zap.Error(err))
			return errors.New("ошибка при создании профиля специалиста")
		}
	}

	return nil
}

func (s *IntakeServiceImpl) hasActiveSession(ctx context.Context, clientID, professionalUserID int64) (bool, error) {
	professional, err := s.professionalRepo.GetByUserID(ctx, professionalUserID)
	if err != nil {
		return false, ErrProfileAccessDenied
	}

	filter := domain.AppointmentFilter{
		ClientID:       &clientID,
		ProfessionalID: &professional.ID,
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка проверки доступа к анкете", zap.Int64("clientId", clientID), zap.Error(err))
		return false, errors.New("ошибка при получении анкеты")
	}

	for _, appointment := range appointments {
		if appointment.Status == domain.AppointmentStatusScheduled || appointment.Status == domain.AppointmentStatusOngoing {
			return true, nil
		}
	}

	return false, nil
}

func wizardSteps(role domain.UserRole) ([]domain.WizardStep, error) {
	switch role {
	case domain.UserRoleClient:
		return domain.ClientWizardSteps, nil
	case domain.UserRoleProfessional:
		return domain.ProfessionalWizardSteps, nil
	default:
		return nil, errors.New("недопустимая роль для регистрации")
	}
}

func mustWizardSteps(role domain.UserRole) []domain.WizardStep {
	steps, err := wizardSteps(role)
	if err != nil {
		return nil
	}
	return steps
}

func stepIndex(steps []domain.WizardStep, step domain.WizardStep) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}
