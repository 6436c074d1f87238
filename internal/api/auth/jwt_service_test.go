package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewService(t *testing.T) {
	t.Run("short secret is rejected", func(t *testing.T) {
		_, err := NewService(Config{Secret: "too-short"})
		if !errors.Is(err, ErrInvalidSecretLength) {
			t.Errorf("expected ErrInvalidSecretLength, got %v", err)
		}
	})

	t.Run("valid secret", func(t *testing.T) {
		svc, err := NewService(Config{Secret: testSecret})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.TokenDuration() != time.Hour {
			t.Errorf("expected default 1h duration, got %v", svc.TokenDuration())
		}
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc, err := NewService(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	token, expiresAt, err := svc.GenerateToken("ops", RoleAdmin)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Error("token already expired")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("expected subject 'ops', got %q", claims.Subject)
	}
	if !claims.IsAdmin() {
		t.Error("expected admin claims")
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	svc, _ := NewService(Config{Secret: testSecret})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewService(Config{Secret: "ffffffffffffffffffffffffffffffff"})
		token, _, err := other.GenerateToken("ops", RoleAdmin)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		short, _ := NewService(Config{Secret: testSecret, TokenDuration: -time.Minute})
		token, _, err := short.GenerateToken("ops", RoleAdmin)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		if _, err := short.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
			t.Errorf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("non-admin role", func(t *testing.T) {
		token, _, err := svc.GenerateToken("viewer", "viewer")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		claims, err := svc.ValidateToken(token)
		if err != nil {
			t.Fatalf("failed to validate token: %v", err)
		}
		if claims.IsAdmin() {
			t.Error("viewer claims must not be admin")
		}
	})
}
