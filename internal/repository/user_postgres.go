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

const userColumns = "id, first_name, last_name, email, phone, password_hash, role, is_active, created_at, updated_at"

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, phone, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		dto.FirstName, dto.LastName, dto.Email, dto.Phone, dto.Password, dto.Role, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return id, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("пользователь с id %d не найден", id)
	}
	return user, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("пользователь с email %s не найден", email)
	}
	return user, err
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone = $1", phone)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("пользователь с телефоном %s не найден", phone)
	}
	return user, err
}

func (r *UserRepo) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	set := make([]string, 0, 6)
	args := []interface{}{id}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if dto.FirstName != nil {
		addSet("first_name", *dto.FirstName)
	}
	if dto.LastName != nil {
		addSet("last_name", *dto.LastName)
	}
	if dto.Email != nil {
		addSet("email", *dto.Email)
	}
	if dto.Phone != nil {
		addSet("phone", *dto.Phone)
	}
	if dto.IsActive != nil {
		addSet("is_active", *dto.IsActive)
	}

	if len(set) == 0 {
		return nil
	}
	addSet("updated_at", time.Now())

	query := "UPDATE users SET " + strings.Join(set, ", ") + " WHERE id = $1"

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := "UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3"

	if _, err := r.db.Exec(ctx, query, passwordHash, time.Now(), id); err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}

	return nil
}

// Delete деактивирует аккаунт, запись остается ради истории записей на приемы.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	query := "UPDATE users SET is_active = false, updated_at = $1 WHERE id = $2"

	if _, err := r.db.Exec(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка пользователей: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения данных пользователя: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return &user, nil
}
