package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newAuthServiceForTest() (*AuthService, *fakeAuthRepo, *fakeThermostatRepo) {
	authRepo := newFakeAuthRepo()
	thermostats := newFakeThermostatRepo()
	svc := NewAuthService(authRepo, thermostats, newFakeSettingRepo(), AuthConfig{
		SigningKey: "test-signing-key",
		TokenTTL:   time.Hour,
	})
	return svc, authRepo, thermostats
}

func TestAuthService_SignUp_NormalizesEmailAndProvisionsThermostat(t *testing.T) {
	svc, authRepo, thermostats := newAuthServiceForTest()

	id, err := svc.SignUp(context.Background(), "  Alice@Example.COM ", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := authRepo.GetByEmail("alice@example.com")
	if err != nil || u == nil {
		t.Fatalf("expected normalized email to be stored, got %v (%v)", u, err)
	}
	if u.ID != id {
		t.Fatalf("expected id %d, got %d", id, u.ID)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}

	owned, err := thermostats.ListByOwner(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected one provisioned thermostat, got %d", len(owned))
	}
}

func TestAuthService_SignUp_RejectsBadInput(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "not-an-email", "pw"); err == nil {
		t.Fatalf("expected error for invalid email")
	}
	if _, err := svc.SignUp(ctx, "a@b.com", "   "); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.SignUp(ctx, "A@B.com", "pw")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	id, err := svc.SignUp(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := svc.GenerateToken(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected user id %d, got %d", id, parsed)
	}
}

func TestAuthService_GenerateToken_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.GenerateToken(ctx, "a@b.com", "wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestAuthService_GenerateToken_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	_, err := svc.GenerateToken(context.Background(), "nobody@b.com", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_ParseToken_WrongKey(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := svc.GenerateToken(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewAuthService(newFakeAuthRepo(), newFakeThermostatRepo(), newFakeSettingRepo(), AuthConfig{
		SigningKey: "different-key",
		TokenTTL:   time.Hour,
	})
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("expected error for token signed with another key")
	}
}
