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

var (
	ErrNotFound = errors.New("запись не найдена")

	// ErrStatusConflict: условное обновление не затронуло ни одной строки —
	// статус записи изменился между чтением и обновлением.
	ErrStatusConflict = errors.New("статус записи изменился, операция отклонена")
)

const appointmentColumns = `a.id, COALESCE(a.client_id, 0), a.professional_id, a.date, a.time, a.duration_minutes,
	       a.type, a.therapy_type, a.status, a.routing_status, a.booking_for,
	       a.meeting_link, a.location, a.issue_type, a.notes, a.cancelled_by, a.reminder_sent_at,
	       a.created_at, a.updated_at`

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

func (r *AppointmentRepo) Create(ctx context.Context, clientID int64, dto domain.CreateAppointmentDTO, routing domain.RoutingStatus) (int64, error) {
	duration := dto.DurationMinutes
	if duration == 0 {
		duration = 50
	}

	// Для гостевых броней клиент отсутствует, client_id остаётся NULL.
	var client *int64
	if clientID != 0 {
		client = &clientID
	}

	query := `
		INSERT INTO appointments (client_id, professional_id, date, time, duration_minutes, type, therapy_type,
			status, routing_status, booking_for, issue_type, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, query,
		client,
		dto.ProfessionalID,
		dto.Date,
		dto.Time,
		duration,
		dto.Type,
		dto.TherapyType,
		domain.AppointmentStatusPending,
		routing,
		dto.BookingFor,
		dto.IssueType,
		dto.Notes,
		now,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи на сессию: %w", err)
	}

	return id, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s,
		       COALESCE(u.first_name || ' ' || u.last_name, '') AS client_name,
		       COALESCE(u.email, '') AS client_email,
		       COALESCE(pu.first_name || ' ' || pu.last_name, '') AS professional_name
		FROM appointments a
		LEFT JOIN users u ON a.client_id = u.id
		LEFT JOIN professionals p ON a.professional_id = p.id
		LEFT JOIN users pu ON p.user_id = pu.id
		WHERE a.id = $1
	`, appointmentColumns)

	var appointment domain.Appointment
	err := r.db.QueryRow(ctx, query, id).Scan(appointmentFields(&appointment)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	return &appointment, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, id int64, dto domain.UpdateAppointmentDTO) error {
	var updateFields []string
	var args []interface{}

	argCount := 1

	if dto.Date != nil {
		updateFields = append(updateFields, fmt.Sprintf("date = $%d", argCount))
		args = append(args, *dto.Date)
		argCount++
	}

	if dto.Time != nil {
		updateFields = append(updateFields, fmt.Sprintf("time = $%d", argCount))
		args = append(args, *dto.Time)
		argCount++
	}

	if dto.MeetingLink != nil {
		updateFields = append(updateFields, fmt.Sprintf("meeting_link = $%d", argCount))
		args = append(args, *dto.MeetingLink)
		argCount++
	}

	if dto.Location != nil {
		updateFields = append(updateFields, fmt.Sprintf("location = $%d", argCount))
		args = append(args, *dto.Location)
		argCount++
	}

	if dto.Notes != nil {
		updateFields = append(updateFields, fmt.Sprintf("notes = $%d", argCount))
		args = append(args, *dto.Notes)
		argCount++
	}

	if len(updateFields) == 0 {
		return nil
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE appointments
		SET %s
		WHERE id = $%d
	`, strings.Join(updateFields, ", "), argCount)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	baseQuery := fmt.Sprintf(`
		SELECT %s,
		       COALESCE(u.first_name || ' ' || u.last_name, '') AS client_name,
		       COALESCE(u.email, '') AS client_email,
		       COALESCE(pu.first_name || ' ' || pu.last_name, '') AS professional_name
		FROM appointments a
		LEFT JOIN users u ON a.client_id = u.id
		LEFT JOIN professionals p ON a.professional_id = p.id
		LEFT JOIN users pu ON p.user_id = pu.id
	`, appointmentColumns)

	conditions, args := filterConditions(filter)

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY a.date DESC, a.time DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		var appointment domain.Appointment
		if err := rows.Scan(appointmentFields(&appointment)...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки записи: %w", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	conditions, args := filterConditions(filter)

	query := `SELECT COUNT(*) FROM appointments a`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}

func (r *AppointmentRepo) BookedTimes(ctx context.Context, professionalID int64, date time.Time) ([]string, error) {
	query := `
		SELECT time
		FROM appointments
		WHERE professional_id = $1
		AND date = $2
		AND status != 'cancelled'
	`

	rows, err := r.db.Query(ctx, query, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слотов: %w", err)
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return times, nil
}

func (r *AppointmentRepo) Accept(ctx context.Context, id, professionalID int64, date time.Time, timeStr string) error {
	// Условие по статусу защищает от гонки двух специалистов
	// за одну запись из общего пула.
	query := `
		UPDATE appointments
		SET status = $1, professional_id = $2, date = $3, time = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	tag, err := r.db.Exec(ctx, query,
		domain.AppointmentStatusScheduled,
		professionalID,
		date,
		timeStr,
		time.Now(),
		id,
		domain.AppointmentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("ошибка принятия записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (r *AppointmentRepo) Refuse(ctx context.Context, id int64) error {
	query := `
		UPDATE appointments
		SET routing_status = $1, professional_id = NULL, updated_at = $2
		WHERE id = $3 AND status = $4 AND routing_status = $5
	`

	tag, err := r.db.Exec(ctx, query,
		domain.RoutingStatusGeneral,
		time.Now(),
		id,
		domain.AppointmentStatusPending,
		domain.RoutingStatusProposed,
	)
	if err != nil {
		return fmt.Errorf("ошибка отклонения записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (r *AppointmentRepo) TransitionStatus(ctx context.Context, id int64, to domain.AppointmentStatus, from ...domain.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`

	states := make([]string, len(from))
	for i, status := range from {
		states[i] = string(status)
	}

	tag, err := r.db.Exec(ctx, query, to, time.Now(), id, states)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (r *AppointmentRepo) Cancel(ctx context.Context, id int64, by domain.CancelledBy) error {
	query := `
		UPDATE appointments
		SET status = $1, cancelled_by = $2, updated_at = $3
		WHERE id = $4 AND status NOT IN ('completed', 'no_show', 'cancelled')
	`

	tag, err := r.db.Exec(ctx, query, domain.AppointmentStatusCancelled, by, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка отмены записи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (r *AppointmentRepo) MarkReminderSent(ctx context.Context, id int64) error {
	query := `UPDATE appointments SET reminder_sent_at = $1 WHERE id = $2`

	_, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}

	return nil
}

func (r *AppointmentRepo) ListForReminder(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s,
		       COALESCE(u.first_name || ' ' || u.last_name, '') AS client_name,
		       COALESCE(u.email, '') AS client_email,
		       COALESCE(pu.first_name || ' ' || pu.last_name, '') AS professional_name
		FROM appointments a
		LEFT JOIN users u ON a.client_id = u.id
		LEFT JOIN professionals p ON a.professional_id = p.id
		LEFT JOIN users pu ON p.user_id = pu.id
		WHERE a.date = $1
		AND a.status = 'scheduled'
		AND a.reminder_sent_at IS NULL
	`, appointmentColumns)

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей для напоминаний: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		var appointment domain.Appointment
		if err := rows.Scan(appointmentFields(&appointment)...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки записи: %w", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return appointments, nil
}

func appointmentFields(a *domain.Appointment) []interface{} {
	return []interface{}{
		&a.ID,
		&a.ClientID,
		&a.ProfessionalID,
		&a.Date,
		&a.Time,
		&a.DurationMinutes,
		&a.Type,
		&a.TherapyType,
		&a.Status,
		&a.RoutingStatus,
		&a.BookingFor,
		&a.MeetingLink,
		&a.Location,
		&a.IssueType,
		&a.Notes,
		&a.CancelledBy,
		&a.ReminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ClientName,
		&a.ClientEmail,
		&a.ProfessionalName,
	}
}

func filterConditions(filter domain.AppointmentFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("a.client_id = $%d", argCount))
		args = append(args, *filter.ClientID)
		argCount++
	}

	if filter.ProfessionalID != nil {
		conditions = append(conditions, fmt.Sprintf("a.professional_id = $%d", argCount))
		args = append(args, *filter.ProfessionalID)
		argCount++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.RoutingStatus != nil {
		conditions = append(conditions, fmt.Sprintf("a.routing_status = $%d", argCount))
		args = append(args, *filter.RoutingStatus)
		argCount++
	}

	if filter.ExcludeStatus != nil {
		conditions = append(conditions, fmt.Sprintf("a.status != $%d", argCount))
		args = append(args, *filter.ExcludeStatus)
		argCount++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", argCount))
		args = append(args, *filter.EndDate)
		argCount++
	}

	return conditions, args
}
