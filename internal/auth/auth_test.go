package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bread-calculator/internal/models"
	"bread-calculator/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	st, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, []byte("test-secret"), time.Hour)
}

func TestRegisterUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "testuser", "Test@Example.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error on register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user id to be assigned")
	}
	if user.Email != "test@example.com" {
		t.Fatalf("expected email to be normalized, got %q", user.Email)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Fatal("expected password to be stored as a hash")
	}

	_, err = svc.Register(ctx, "testuser", "other@example.com", "password123")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}

	_, err = svc.Register(ctx, "otheruser", "test@example.com", "password123")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestRegisterUser_PasswordTooLong(t *testing.T) {
	svc := setupTestService(t)

	// 40 runes, 80 bytes.
	_, err := svc.Register(context.Background(), "longpass", "long@example.com", strings.Repeat("é", 40))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "authuser", "auth@example.com", "secret1"); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	user, token, err := svc.Authenticate(ctx, "authuser", "secret1")
	if err != nil {
		t.Fatalf("authentication failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected token, got empty string")
	}
	if user.Username != "authuser" {
		t.Fatalf("expected authuser, got %q", user.Username)
	}

	_, _, err = svc.Authenticate(ctx, "authuser", "wrongpassword")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on wrong password, got %v", err)
	}

	_, _, err = svc.Authenticate(ctx, "wronguser", "secret1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on wrong login, got %v", err)
	}
}

func TestParseToken(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "tokenuser", "token@example.com", "passwd"); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	user, token, err := svc.Authenticate(ctx, "tokenuser", "passwd")
	if err != nil {
		t.Fatalf("failed to authenticate user: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %d in claims, got %d", user.ID, claims.UserID)
	}
	if claims.Username != "tokenuser" {
		t.Fatalf("expected username in claims, got %q", claims.Username)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Fatal("token already expired")
	}
}

func TestParseToken_Rejects(t *testing.T) {
	svc := setupTestService(t)
	user := &models.User{ID: 7, Username: "someone"}

	t.Run("expired", func(t *testing.T) {
		expired := NewService(nil, []byte("test-secret"), time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := expired.IssueToken(user)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(nil, []byte("other-secret"), time.Hour)
		token, err := other.IssueToken(user)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := &Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.ParseToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestSigningKey(t *testing.T) {
	key, generated, err := SigningKey("configured")
	if err != nil || generated || string(key) != "configured" {
		t.Fatalf("expected configured key, got %q generated=%v err=%v", key, generated, err)
	}

	key, generated, err = SigningKey("")
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if !generated || len(key) != 32 {
		t.Fatalf("expected 32 generated bytes, got %d generated=%v", len(key), generated)
	}
}
