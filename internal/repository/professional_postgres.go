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

type ProfessionalRepo struct {
	db *pgxpool.Pool
}

func NewProfessionalRepository(db *pgxpool.Pool) *ProfessionalRepo {
	return &ProfessionalRepo{
		db: db,
	}
}

const professionalColumns = `p.id, p.user_id, p.title, p.bio, p.issue_types, p.therapy_types, p.formats,
	       p.languages, p.experience_years, p.session_price, p.is_verified,
	       p.profile_photo_url, p.license_document_url, p.created_at, p.updated_at,
	       u.id, u.first_name, u.last_name, u.email, u.phone, u.role, u.is_active, u.created_at, u.updated_at`

func (r *ProfessionalRepo) Create(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error) {
	query := `
		INSERT INTO professionals (user_id, title, bio, issue_types, therapy_types, formats, languages,
			experience_years, session_price, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $10)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, query,
		userID,
		dto.Title,
		dto.Bio,
		dto.IssueTypes,
		therapyTypesToStrings(dto.TherapyTypes),
		formatsToStrings(dto.Formats),
		dto.Languages,
		dto.ExperienceYears,
		dto.SessionPrice,
		now,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("ошибка создания профиля специалиста: %w", err)
	}

	return id, nil
}

func (r *ProfessionalRepo) GetByID(ctx context.Context, id int64) (*domain.Professional, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professionals p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1
	`, professionalColumns)

	professional, err := r.scanProfessional(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("специалист с id %d не найден", id)
		}
		return nil, fmt.Errorf("ошибка получения специалиста: %w", err)
	}

	return professional, nil
}

func (r *ProfessionalRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professionals p
		JOIN users u ON p.user_id = u.id
		WHERE p.user_id = $1
	`, professionalColumns)

	professional, err := r.scanProfessional(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("профиль специалиста для пользователя %d не найден", userID)
		}
		return nil, fmt.Errorf("ошибка получения специалиста: %w", err)
	}

	return professional, nil
}

func (r *ProfessionalRepo) Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error {
	setValues := []string{}
	args := []interface{}{id}
	argId := 2

	if dto.Title != nil {
		setValues = append(setValues, fmt.Sprintf("title = $%d", argId))
		args = append(args, *dto.Title)
		argId++
	}

	if dto.Bio != nil {
		setValues = append(setValues, fmt.Sprintf("bio = $%d", argId))
		args = append(args, *dto.Bio)
		argId++
	}

	if dto.IssueTypes != nil {
		setValues = append(setValues, fmt.Sprintf("issue_types = $%d", argId))
		args = append(args, *dto.IssueTypes)
		argId++
	}

	if dto.TherapyTypes != nil {
		setValues = append(setValues, fmt.Sprintf("therapy_types = $%d", argId))
		args = append(args, therapyTypesToStrings(*dto.TherapyTypes))
		argId++
	}

	if dto.Formats != nil {
		setValues = append(setValues, fmt.Sprintf("formats = $%d", argId))
		args = append(args, formatsToStrings(*dto.Formats))
		argId++
	}

	if dto.Languages != nil {
		setValues = append(setValues, fmt.Sprintf("languages = $%d", argId))
		args = append(args, *dto.Languages)
		argId++
	}

	if dto.ExperienceYears != nil {
		setValues = append(setValues, fmt.Sprintf("experience_years = $%d", argId))
		args = append(args, *dto.ExperienceYears)
		argId++
	}

	if dto.SessionPrice != nil {
		setValues = append(setValues, fmt.Sprintf("session_price = $%d", argId))
		args = append(args, *dto.SessionPrice)
		argId++
	}

	if dto.IsVerified != nil {
		setValues = append(setValues, fmt.Sprintf("is_verified = $%d", argId))
		args = append(args, *dto.IsVerified)
		argId++
	}

	if len(setValues) == 0 {
		return nil
	}

	setValues = append(setValues, fmt.Sprintf("updated_at = $%d", argId))
	args = append(args, time.Now())

	query := "UPDATE professionals SET " + strings.Join(setValues, ", ") + " WHERE id = $1"

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля специалиста: %w", err)
	}

	return nil
}

func (r *ProfessionalRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM professionals WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления профиля специалиста: %w", err)
	}

	return nil
}

func (r *ProfessionalRepo) List(ctx context.Context, filter domain.ProfessionalFilter) ([]domain.Professional, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.IssueType != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(p.issue_types)", argCount))
		args = append(args, *filter.IssueType)
		argCount++
	}

	if filter.TherapyType != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(p.therapy_types)", argCount))
		args = append(args, string(*filter.TherapyType))
		argCount++
	}

	if filter.Format != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(p.formats)", argCount))
		args = append(args, string(*filter.Format))
		argCount++
	}

	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_verified = $%d", argCount))
		args = append(args, *filter.Verified)
		argCount++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM professionals p" + whereClause

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета специалистов: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM professionals p
		JOIN users u ON p.user_id = u.id
		%s
		ORDER BY p.id
	`, professionalColumns, whereClause)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	professionals := make([]domain.Professional, 0)
	for rows.Next() {
		professional, err := r.scanProfessional(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки специалиста: %w", err)
		}
		professionals = append(professionals, *professional)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return professionals, total, nil
}

func (r *ProfessionalRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	query := `
		UPDATE professionals
		SET profile_photo_url = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(ctx, query, photoURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления фото профиля: %w", err)
	}

	return nil
}

func (r *ProfessionalRepo) UpdateLicenseDocument(ctx context.Context, id int64, documentURL string) error {
	query := `
		UPDATE professionals
		SET license_document_url = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(ctx, query, documentURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления документа лицензии: %w", err)
	}

	return nil
}

func (r *ProfessionalRepo) scanProfessional(row pgx.Row) (*domain.Professional, error) {
	var p domain.Professional
	var therapyTypes, formats []string

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Bio,
		&p.IssueTypes,
		&therapyTypes,
		&formats,
		&p.Languages,
		&p.ExperienceYears,
		&p.SessionPrice,
		&p.IsVerified,
		&p.ProfilePhotoURL,
		&p.LicenseDocumentURL,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.User.ID,
		&p.User.FirstName,
		&p.User.LastName,
		&p.User.Email,
		&p.User.Phone,
		&p.User.Role,
		&p.User.IsActive,
		&p.User.CreatedAt,
		&p.User.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TherapyTypes = stringsToTherapyTypes(therapyTypes)
	p.Formats = stringsToFormats(formats)

	return &p, nil
}

func therapyTypesToStrings(values []domain.TherapyType) []string {
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = string(v)
	}
	return result
}

func stringsToTherapyTypes(values []string) []domain.TherapyType {
	result := make([]domain.TherapyType, len(values))
	for i, v := range values {
		result[i] = domain.TherapyType(v)
	}
	return result
}

func formatsToStrings(values []domain.AppointmentType) []string {
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = string(v)
	}
	return result
}

func stringsToFormats(values []string) []domain.AppointmentType {
	result := make([]domain.AppointmentType, len(values))
	for i, v := range values {
		result[i] = domain.AppointmentType(v)
	}
	return result
}
