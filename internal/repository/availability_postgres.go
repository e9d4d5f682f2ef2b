package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/domain"
)

type AvailabilityRepo struct {
	db *pgxpool.Pool
}

func NewAvailabilityRepository(db *pgxpool.Pool) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func (r *AvailabilityRepo) GetByProfessionalID(ctx context.Context, professionalID int64) (*domain.WorkingHoursTemplate, error) {
	query := `
		SELECT id, professional_id, days, session_duration_minutes, break_duration_minutes, first_day_of_week, created_at, updated_at
		FROM availability_templates
		WHERE professional_id = $1
	`

	var template domain.WorkingHoursTemplate
	var daysJSON []byte

	err := r.db.QueryRow(ctx, query, professionalID).Scan(
		&template.ID,
		&template.ProfessionalID,
		&daysJSON,
		&template.SessionDurationMinutes,
		&template.BreakDurationMinutes,
		&template.FirstDayOfWeek,
		&template.CreatedAt,
		&template.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения шаблона расписания: %w", err)
	}

	if err := json.Unmarshal(daysJSON, &template.Days); err != nil {
		return nil, fmt.Errorf("ошибка разбора дней шаблона: %w", err)
	}

	return &template, nil
}

func (r *AvailabilityRepo) Upsert(ctx context.Context, template domain.WorkingHoursTemplate) (int64, error) {
	daysJSON, err := json.Marshal(template.Days)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации дней шаблона: %w", err)
	}

	query := `
		INSERT INTO availability_templates (professional_id, days, session_duration_minutes, break_duration_minutes, first_day_of_week, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (professional_id) DO UPDATE SET
			days = EXCLUDED.days,
			session_duration_minutes = EXCLUDED.session_duration_minutes,
			break_duration_minutes = EXCLUDED.break_duration_minutes,
			first_day_of_week = EXCLUDED.first_day_of_week,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id int64
	err = r.db.QueryRow(ctx, query,
		template.ProfessionalID,
		daysJSON,
		template.SessionDurationMinutes,
		template.BreakDurationMinutes,
		template.FirstDayOfWeek,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения шаблона расписания: %w", err)
	}

	return id, nil
}
