package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionLifetime bounds how long a verified identity stays usable without
// re-verifying initData. Telegram hands the app fresh initData on every
// open, so short sessions cost the user nothing.
const SessionLifetime = 1 * time.Hour

// TokenService signs and verifies the session JWTs issued after initData
// verification. It holds the HMAC secret used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the verified user snapshot. The Telegram id
// travels in the standard "sub" claim as a decimal string; the name fields
// ride along so the submission workflow can create the owner record
// without another round of initData parsing.
type claims struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for a verified user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and entirely
// adequate for a single-server deployment.
func (s *TokenService) Generate(user TelegramUser) (string, error) {
	now := time.Now()

	c := claims{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionLifetime)),
			Issuer:    "ijara",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token and reconstructs the user
// snapshot it carries.
//
// The jwt library checks signature, expiry and issuer; pinning the allowed
// algorithms with WithValidMethods prevents algorithm-confusion attacks
// (a token claiming alg "none" must never validate).
func (s *TokenService) Validate(tokenStr string) (*TelegramUser, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("ijara"),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth: token subject is not a telegram id: %w", err)
	}

	return &TelegramUser{
		ID:        id,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}, nil
}
