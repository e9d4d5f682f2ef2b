package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/domain"
)

type MedicalProfileRepo struct {
	db *pgxpool.Pool
}

func NewMedicalProfileRepository(db *pgxpool.Pool) *MedicalProfileRepo {
	return &MedicalProfileRepo{db: db}
}

func (r *MedicalProfileRepo) GetByClientID(ctx context.Context, clientID int64) (*domain.MedicalProfile, error) {
	query := `
		SELECT id, client_id, conditions, symptoms, symptom_duration_months, medications,
		       previous_therapy, previous_therapy_details, goals, sleep_quality, stress_level,
		       emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
		       preferred_language, notes, created_at, updated_at
		FROM medical_profiles
		WHERE client_id = $1
	`

	var profile domain.MedicalProfile
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&profile.ID,
		&profile.ClientID,
		&profile.Conditions,
		&profile.Symptoms,
		&profile.SymptomDurationMonths,
		&profile.Medications,
		&profile.PreviousTherapy,
		&profile.PreviousTherapyDetails,
		&profile.Goals,
		&profile.SleepQuality,
		&profile.StressLevel,
		&profile.EmergencyContactName,
		&profile.EmergencyContactPhone,
		&profile.EmergencyContactRelation,
		&profile.PreferredLanguage,
		&profile.Notes,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения медицинской анкеты: %w", err)
	}

	return &profile, nil
}

func (r *MedicalProfileRepo) Upsert(ctx context.Context, clientID int64, dto domain.UpdateMedicalProfileDTO) error {
	// Пустая строка создаётся при первом обращении, дальше частичные обновления.
	insertQuery := `
		INSERT INTO medical_profiles (client_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (client_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, insertQuery, clientID, time.Now()); err != nil {
		return fmt.Errorf("ошибка создания медицинской анкеты: %w", err)
	}

	setValues := []string{}
	args := []interface{}{clientID}
	argId := 2

	appendField := func(column string, value interface{}) {
		setValues = append(setValues, fmt.Sprintf("%s = $%d", column, argId))
		args = append(args, value)
		argId++
	}

	if dto.Conditions != nil {
		appendField("conditions", *dto.Conditions)
	}
	if dto.Symptoms != nil {
		appendField("symptoms", *dto.Symptoms)
	}
	if dto.SymptomDurationMonths != nil {
		appendField("symptom_duration_months", *dto.SymptomDurationMonths)
	}
	if dto.Medications != nil {
		appendField("medications", *dto.Medications)
	}
	if dto.PreviousTherapy != nil {
		appendField("previous_therapy", *dto.PreviousTherapy)
	}
	if dto.PreviousTherapyDetails != nil {
		appendField("previous_therapy_details", *dto.PreviousTherapyDetails)
	}
	if dto.Goals != nil {
		appendField("goals", *dto.Goals)
	}
	if dto.SleepQuality != nil {
		appendField("sleep_quality", *dto.SleepQuality)
	}
	if dto.StressLevel != nil {
		appendField("stress_level", *dto.StressLevel)
	}
	if dto.EmergencyContactName != nil {
		appendField("emergency_contact_name", *dto.EmergencyContactName)
	}
	if dto.EmergencyContactPhone != nil {
		appendField("emergency_contact_phone", *dto.EmergencyContactPhone)
	}
	if dto.EmergencyContactRelation != nil {
		appendField("emergency_contact_relation", *dto.EmergencyContactRelation)
	}
	if dto.PreferredLanguage != nil {
		appendField("preferred_language", *dto.PreferredLanguage)
	}
	if dto.Notes != nil {
		appendField("notes", *dto.Notes)
	}

	if len(setValues) == 0 {
		return nil
	}

	appendField("updated_at", time.Now())

	query := "UPDATE medical_profiles SET " + strings.Join(setValues, ", ") + " WHERE client_id = $1"

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления медицинской анкеты: %w", err)
	}

	return nil
}
