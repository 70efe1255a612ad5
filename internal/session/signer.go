package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "matchday"

	// minKeyLen rejects keys short enough to brute-force HS256 offline.
	minKeyLen = 32
)

// Signer signs and verifies session tokens with the process-wide symmetric
// key. Verify checks the signature and registered claims only; it does NOT
// consult the registry.
type Signer struct {
	key          []byte
	ttl          time.Duration
	refreshAfter time.Duration
	now          func() time.Time
}

// NewSigner validates the key length once at startup.
func NewSigner(key string, ttl, refreshAfter time.Duration) (*Signer, error) {
	if len(key) < minKeyLen {
		return nil, fmt.Errorf("session: signing key must be at least %d bytes", minKeyLen)
	}
	if ttl <= 0 || refreshAfter <= 0 || refreshAfter >= ttl {
		return nil, fmt.Errorf("session: refresh window %v must be positive and shorter than ttl %v", refreshAfter, ttl)
	}
	return &Signer{
		key:          []byte(key),
		ttl:          ttl,
		refreshAfter: refreshAfter,
		now:          time.Now,
	}, nil
}

// SetClock overrides the time source; only intended for tests.
func (s *Signer) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Sign stamps the registered claims and signs with HS256.
func (s *Signer) Sign(claims Claims) (string, error) {
	now := s.now().UTC()
	claims.RefreshAfter = now.Add(s.refreshAfter).Unix()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   claims.Login,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify recomputes and compares the signature and validates the
// registered claims. Every failure collapses into ErrIllegalToken.
func (s *Signer) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrIllegalToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrIllegalToken
		}
		return s.key, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrIllegalToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Login == "" {
		return nil, ErrIllegalToken
	}
	return claims, nil
}
