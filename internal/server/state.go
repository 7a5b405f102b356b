package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jams/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

type stateClaims struct {
	State string `json:"state"`
	jwt.RegisteredClaims
}

// StateSigner issues and verifies the short-lived anti-forgery state cookie as an HS256 JWT.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a signer. An empty secret is replaced with random bytes, so cookies only verify
// within the same process.
func NewStateSigner(secret []byte, ttl time.Duration) *StateSigner {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{secret: secret, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of a signed state.
func (s *StateSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns a compact JWT carrying state.
func (s *StateSigner) Sign(state string) (string, error) {
	now := s.now()
	claims := stateClaims{
		State: state,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify checks that token is a valid, unexpired signature over state.
func (s *StateSigner) Verify(token, state string) error {
	if token == "" {
		return fmt.Errorf("%w: missing state cookie", shared.ErrStateMismatch)
	}

	claims := &stateClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: state expired", shared.ErrStateMismatch)
		}
		return fmt.Errorf("%w: %v", shared.ErrStateMismatch, err)
	}

	if claims.State != state {
		return fmt.Errorf("%w: state does not match", shared.ErrStateMismatch)
	}
	return nil
}
