package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/domain"
)

type GuestBookingRepo struct {
	db *pgxpool.Pool
}

func NewGuestBookingRepository(db *pgxpool.Pool) *GuestBookingRepo {
	return &GuestBookingRepo{db: db}
}

func (r *GuestBookingRepo) Create(ctx context.Context, booking domain.GuestBooking) (int64, error) {
	query := `
		INSERT INTO guest_bookings (reference, appointment_id, name, email, phone, amount, currency, payment_intent_id, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		booking.Reference,
		booking.AppointmentID,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Amount,
		booking.Currency,
		booking.PaymentIntentID,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("ошибка создания гостевого бронирования: %w", err)
	}

	return id, nil
}

func (r *GuestBookingRepo) GetByReference(ctx context.Context, reference string) (*domain.GuestBooking, error) {
	query := `
		SELECT id, reference, appointment_id, name, email, phone, amount, currency, payment_intent_id, paid, created_at, updated_at
		FROM guest_bookings
		WHERE reference = $1
	`

	var booking domain.GuestBooking
	err := r.db.QueryRow(ctx, query, reference).Scan(
		&booking.ID,
		&booking.Reference,
		&booking.AppointmentID,
		&booking.Name,
		&booking.Email,
		&booking.Phone,
		&booking.Amount,
		&booking.Currency,
		&booking.PaymentIntentID,
		&booking.Paid,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения гостевого бронирования: %w", err)
	}

	return &booking, nil
}

func (r *GuestBookingRepo) SetPaymentIntent(ctx context.Context, reference, paymentIntentID string) error {
	query := `
		UPDATE guest_bookings
		SET payment_intent_id = $1, updated_at = $2
		WHERE reference = $3
	`

	_, err := r.db.Exec(ctx, query, paymentIntentID, time.Now(), reference)
	if err != nil {
		return fmt.Errorf("ошибка сохранения платежного намерения: %w", err)
	}

	return nil
}

func (r *GuestBookingRepo) MarkPaid(ctx context.Context, reference string) error {
	query := `
		UPDATE guest_bookings
		SET paid = true, updated_at = $1
		WHERE reference = $2 AND paid = false
	`

	tag, err := r.db.Exec(ctx, query, time.Now(), reference)
	if err != nil {
		return fmt.Errorf("ошибка отметки оплаты: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	return nil
}
