package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

var testUser = TelegramUser{
	ID:        99281932,
	Username:  "otabek",
	FirstName: "Otabek",
	LastName:  "R",
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerateValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not header.payload.signature shaped", token)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if *got != testUser {
		t.Errorf("Validate() = %+v, want %+v", got, testUser)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-different-secret-entirely!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := other.Validate(token); err == nil {
		t.Fatal("Validate() accepted a token signed with another secret")
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	// forge a token that expired an hour ago, signed with the right secret
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "99281932",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			Issuer:    "ijara",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(ts.secret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ts.Validate(signed); err == nil {
		t.Fatal("Validate() accepted an expired token")
	}
}

func TestValidate_WrongIssuer(t *testing.T) {
	ts := newTestTokenService(t)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "99281932",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "someone-else",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(ts.secret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ts.Validate(signed); err == nil {
		t.Fatal("Validate() accepted a token from another issuer")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Validate("not.a.token"); err == nil {
		t.Fatal("Validate() accepted garbage")
	}
}
