package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/anyjobhub/qalbii/internal/common/utils"
)

const testSecret = "test-secret-at-least-32-characters"

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := utils.GenerateJWT(42, "amina", "access", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := utils.ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "amina" {
		t.Errorf("Username = %q, want %q", claims.Username, "amina")
	}
	if claims.Type != "access" {
		t.Errorf("Type = %q, want %q", claims.Type, "access")
	}
	if claims.Issuer != "qalbii" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "qalbii")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := utils.GenerateJWT(42, "amina", "access", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := utils.ValidateJWT(token, "another-secret-entirely"); !errors.Is(err, utils.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	t.Parallel()

	token, err := utils.GenerateJWT(42, "amina", "access", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := utils.ValidateJWT(token, testSecret); !errors.Is(err, utils.ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := utils.ValidateJWT(token, testSecret); !errors.Is(err, utils.ErrInvalidToken) {
			t.Errorf("token %q: err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestTokenTypesAreDistinct(t *testing.T) {
	t.Parallel()

	refresh, err := utils.GenerateJWT(7, "bashir", "refresh", testSecret, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := utils.ValidateJWT(refresh, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.Type != "refresh" {
		t.Errorf("Type = %q, want %q", claims.Type, "refresh")
	}
}
