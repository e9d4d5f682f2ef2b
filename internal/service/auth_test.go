package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mindwell/config"
	"mindwell/internal/domain"
	"mindwell/pkg/auth"
)

var testJWTConfig = config.JWTConfig{
	SigningKey:      "test-signing-key",
	AccessTokenTTL:  15 * time.Minute,
	RefreshTokenTTL: 24 * time.Hour,
}

func activeUser(passwordHash string) *domain.User {
	return &domain.User{
		ID:           5,
		FirstName:    "Анна",
		LastName:     "Иванова",
		Email:        "anna@example.com",
		PasswordHash: passwordHash,
		Role:         domain.UserRoleClient,
		IsActive:     true,
	}
}

func TestLoginAndParseToken(t *testing.T) {
	hash, err := auth.HashPassword("correcthorse1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return activeUser(hash), nil
		},
	}
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig, zap.NewNop())

	tokens, err := svc.Login(context.Background(), domain.LoginRequest{
		Login:    "anna@example.com",
		Password: "correcthorse1",
	}, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	userID, role, err := svc.ParseToken(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if userID != 5 || role != domain.UserRoleClient {
		t.Errorf("unexpected claims: userID=%d role=%s", userID, role)
	}

	if len(sessions.Sessions) != 1 {
		t.Errorf("expected one stored session, got %d", len(sessions.Sessions))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correcthorse1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return activeUser(hash), nil
		},
	}
	svc := NewAuthService(newFakeAuthRepo(), users, testJWTConfig, zap.NewNop())

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Login:    "anna@example.com",
		Password: "wronghorse1",
	}, "", ""); err == nil {
		t.Fatal("expected login failure with wrong password")
	}
}

func TestLoginLegacyBcryptHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("correcthorse1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}

	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return activeUser(string(legacy)), nil
		},
	}
	svc := NewAuthService(newFakeAuthRepo(), users, testJWTConfig, zap.NewNop())

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Login:    "anna@example.com",
		Password: "correcthorse1",
	}, "", ""); err != nil {
		t.Fatalf("expected legacy bcrypt login to succeed, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	hash, err := auth.HashPassword("correcthorse1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	user := activeUser(hash)
	user.IsActive = false
	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(newFakeAuthRepo(), users, testJWTConfig, zap.NewNop())

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Login:    "anna@example.com",
		Password: "correcthorse1",
	}, "", ""); err == nil {
		t.Fatal("expected login failure for deactivated account")
	}
}

func TestRegisterStoresArgon2Hash(t *testing.T) {
	var created domain.CreateUserDTO
	users := &fakeUserRepo{
		CreateFn: func(ctx context.Context, dto domain.CreateUserDTO) (int64, error) {
			created = dto
			return 5, nil
		},
	}
	svc := NewAuthService(newFakeAuthRepo(), users, testJWTConfig, zap.NewNop())

	id, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "Анна",
		LastName:  "Иванова",
		Email:     "anna@example.com",
		Phone:     "+79991234567",
		Password:  "correcthorse1",
		Role:      domain.UserRoleClient,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if id != 5 {
		t.Errorf("expected user id 5, got %d", id)
	}

	if created.Password == "correcthorse1" {
		t.Fatal("password must not be stored in plain text")
	}
	ok, err := auth.VerifyPassword("correcthorse1", created.Password)
	if err != nil || !ok {
		t.Errorf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestRefreshTokensRotatesSession(t *testing.T) {
	hash, err := auth.HashPassword("correcthorse1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	users := &fakeUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return activeUser(hash), nil
		},
		GetByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return activeUser(hash), nil
		},
	}
	sessions := newFakeAuthRepo()
	svc := NewAuthService(sessions, users, testJWTConfig, zap.NewNop())

	tokens, err := svc.Login(context.Background(), domain.LoginRequest{
		Login:    "anna@example.com",
		Password: "correcthorse1",
	}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.RefreshTokens(context.Background(), tokens.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("RefreshTokens failed: %v", err)
	}

	if len(sessions.Sessions) != 1 {
		t.Fatalf("expected exactly one session after rotation, got %d", len(sessions.Sessions))
	}
	if _, ok := sessions.Sessions[refreshed.RefreshToken]; !ok {
		t.Error("expected new session to be stored")
	}

	if _, err := svc.RefreshTokens(context.Background(), "garbage-token", "", ""); err == nil {
		t.Error("expected error for unknown refresh token")
	}
}
