package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"leafmarket.io/internal/auth"
	"leafmarket.io/internal/secrets"
)

func testUser() *auth.User {
	return &auth.User{
		ID:            "01HUSERULID",
		Email:         "a@b.com",
		Role:          auth.RoleCustomer,
		WalletAddress: "0xabc123",
		Status:        auth.StatusActive,
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	iss := NewIssuer(secrets.NewStatic("current-secret", ""))

	token, expiresAt, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}
	if until := time.Until(expiresAt); until < DefaultTTL-time.Minute {
		t.Fatalf("expected roughly seven-day lifetime, got %v", until)
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "01HUSERULID" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != auth.RoleCustomer {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.Wallet != "0xabc123" {
		t.Fatalf("wallet claim lost: %s", claims.Wallet)
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	iss := NewIssuer(secrets.NewStatic("current-secret", ""))
	first, _, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, _, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first == second {
		t.Fatalf("tokens must carry unique ids")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	past := time.Now().Add(-8 * 24 * time.Hour)
	issuing := NewIssuer(secrets.NewStatic("current-secret", ""), WithClock(func() time.Time { return past }))
	token, _, err := issuing.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	verifying := NewIssuer(secrets.NewStatic("current-secret", ""))
	if _, err := verifying.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRotationGraceWindow(t *testing.T) {
	oldIssuer := NewIssuer(secrets.NewStatic("secret-gen-1", ""))
	token, _, err := oldIssuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// One rotation later the old secret is retained as previous.
	afterOne := NewIssuer(secrets.NewStatic("secret-gen-2", "secret-gen-1"))
	if _, err := afterOne.Verify(token); err != nil {
		t.Fatalf("token signed with previous secret must verify: %v", err)
	}

	// Two rotations later the signing secret is gone.
	afterTwo := NewIssuer(secrets.NewStatic("secret-gen-3", "secret-gen-2"))
	if _, err := afterTwo.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token two generations back must fail, got %v", err)
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	iss := NewIssuer(secrets.NewStatic("", ""))
	if _, _, err := iss.Issue(testUser()); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	iss := NewIssuer(secrets.NewStatic("current-secret", ""))
	token, _, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := iss.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
	if _, err := iss.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	foreign := NewIssuer(secrets.NewStatic("current-secret", ""), WithIssuerName("someone-else"))
	token, _, err := foreign.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	iss := NewIssuer(secrets.NewStatic("current-secret", ""))
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}
}
