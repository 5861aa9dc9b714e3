package auth

import (
	"context"
	"errors"
	"testing"
)

func registerTestUser(t *testing.T, svc *Service, role string) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:       "a@b.com",
		Password:    "Secure123!",
		Role:        role,
		Name:        "Alex",
		AgeVerified: true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(NewMemoryUserStore())
	user := registerTestUser(t, svc, RoleCustomer)

	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if user.PasswordHash == "" || user.PasswordHash == "Secure123!" {
		t.Fatalf("password must be stored hashed")
	}
	if user.Status != StatusActive {
		t.Fatalf("unexpected status: %s", user.Status)
	}

	got, err := svc.Login(context.Background(), "A@B.com", "Secure123!", RoleCustomer)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned wrong user: %s != %s", got.ID, user.ID)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc := NewService(NewMemoryUserStore())
	registerTestUser(t, svc, RoleCustomer)

	cases := map[string]struct {
		email    string
		password string
		role     string
		reason   string
	}{
		"unknown email":  {"nobody@b.com", "Secure123!", RoleCustomer, ReasonNoMatchingUser},
		"wrong role":     {"a@b.com", "Secure123!", RoleMerchant, ReasonNoMatchingUser},
		"wrong password": {"a@b.com", "WrongPass1!", RoleCustomer, ReasonPasswordMismatch},
		"bad role value": {"a@b.com", "Secure123!", "superuser", ReasonMalformedRequest},
	}
	for name, tc := range cases {
		_, err := svc.Login(context.Background(), tc.email, tc.password, tc.role)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
		var loginErr *LoginError
		if !errors.As(err, &loginErr) {
			t.Fatalf("%s: expected LoginError, got %T", name, err)
		}
		if loginErr.Reason != tc.reason {
			t.Fatalf("%s: expected internal reason %q, got %q", name, tc.reason, loginErr.Reason)
		}
		if loginErr.Error() != ErrInvalidCredentials.Error() {
			t.Fatalf("%s: external message must stay generic, got %q", name, loginErr.Error())
		}
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	store := NewMemoryUserStore()
	svc := NewService(store)
	user := registerTestUser(t, svc, RoleMerchant)

	if err := store.Disable(context.Background(), user.ID); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	_, err := svc.Login(context.Background(), "a@b.com", "Secure123!", RoleMerchant)
	var loginErr *LoginError
	if !errors.As(err, &loginErr) || loginErr.Reason != ReasonUserDisabled {
		t.Fatalf("expected disabled-user login error, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := NewMemoryUserStore()
	svc := NewService(store)
	existing := registerTestUser(t, svc, RoleCustomer)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:       "A@B.COM",
		Password:    "Another123!",
		Role:        RoleMerchant,
		Name:        "Imposter",
		AgeVerified: true,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	kept, err := store.Find(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if kept.Role != RoleCustomer || kept.Name != "Alex" {
		t.Fatalf("existing record must be unchanged after conflict")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryUserStore())
	cases := map[string]RegisterParams{
		"malformed email": {Email: "not-an-email", Password: "Secure123!", Role: RoleCustomer, Name: "X", AgeVerified: true},
		"weak password":   {Email: "ok@b.com", Password: "short", Role: RoleCustomer, Name: "X", AgeVerified: true},
		"unknown role":    {Email: "ok@b.com", Password: "Secure123!", Role: "wholesaler", Name: "X", AgeVerified: true},
		"missing name":    {Email: "ok@b.com", Password: "Secure123!", Role: RoleCustomer, Name: "  ", AgeVerified: true},
		"underage":        {Email: "ok@b.com", Password: "Secure123!", Role: RoleCustomer, Name: "X", AgeVerified: false},
	}
	for name, params := range cases {
		if _, err := svc.Register(context.Background(), params); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}
