package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestFromTokenNumericID(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"id": 7, "role": "customer"})

	ident, err := FromToken(tok)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	if ident.ActorID != 7 {
		t.Errorf("actor id = %d, want 7", ident.ActorID)
	}
	if ident.Role != RoleCustomer {
		t.Errorf("role = %q, want customer", ident.Role)
	}
}

func TestFromTokenStringID(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"id": "42", "role": "housekeeper"})

	ident, err := FromToken(tok)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	if ident.ActorID != 42 {
		t.Errorf("actor id = %d, want 42", ident.ActorID)
	}
	if ident.Role != RoleHousekeeper {
		t.Errorf("role = %q, want housekeeper", ident.Role)
	}
}

func TestFromTokenSubFallback(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "9"})

	ident, err := FromToken(tok)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	if ident.ActorID != 9 {
		t.Errorf("actor id = %d, want 9", ident.ActorID)
	}
	// Role defaults to customer when the claim is absent
	if ident.Role != RoleCustomer {
		t.Errorf("role = %q, want customer", ident.Role)
	}
}

func TestFromTokenMissingID(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"role": "customer"})

	if _, err := FromToken(tok); err == nil {
		t.Fatal("expected error for token without actor id")
	}
}

func TestFromTokenGarbage(t *testing.T) {
	if _, err := FromToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
