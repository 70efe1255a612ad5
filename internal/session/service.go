package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchday.app/internal/identity"
)

// CapabilitySource resolves the ordered capability list for a role at
// token-assembly time. The startup-loaded directory satisfies it; a cached
// store wrapper can be substituted.
type CapabilitySource interface {
	Capabilities(ctx context.Context, role int) ([]identity.Capability, error)
}

// CapabilitySourceFunc adapts a function to CapabilitySource.
type CapabilitySourceFunc func(ctx context.Context, role int) ([]identity.Capability, error)

func (f CapabilitySourceFunc) Capabilities(ctx context.Context, role int) ([]identity.Capability, error) {
	return f(ctx, role)
}

// DirectorySource adapts the in-memory capability directory.
func DirectorySource(dir *identity.Directory) CapabilitySource {
	return CapabilitySourceFunc(func(_ context.Context, role int) ([]identity.Capability, error) {
		return dir.ForRole(role), nil
	})
}

// Service verifies credentials, assembles and signs session tokens and
// keeps the registry consistent with issuance and revocation.
type Service struct {
	identities identity.Store
	caps       CapabilitySource
	signer     *Signer
	registry   *Registry
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
			s.signer.SetClock(fn)
		}
	}
}

// NewService wires the issuer with its collaborators.
func NewService(identities identity.Store, caps CapabilitySource, signer *Signer, registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{
		identities: identities,
		caps:       caps,
		signer:     signer,
		registry:   registry,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit validates login and password and issues a registered session token.
// Outcomes:
//   - matching authorized identity: token, true, nil
//   - matching identity with access not granted: "", false, *NotAuthorizedError
//   - no match at all (unknown login or wrong password): "", false, nil
//
// Callers must impose a uniform delay before responding regardless of the
// outcome, to blunt credential enumeration by timing.
func (s *Service) Emit(ctx context.Context, login, password string) (string, bool, error) {
	ident, err := s.identities.FindByLogin(ctx, login)
	if errors.Is(err, identity.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: look up %s: %w", login, err)
	}
	if err := identity.VerifyPassword(ident.PasswordHash, password); err != nil {
		return "", false, nil
	}
	if !ident.Authorized {
		return "", false, &NotAuthorizedError{Login: login}
	}

	token, err := s.issue(ctx, ident)
	if err != nil {
		return "", false, err
	}
	if err := s.registry.Register(ctx, ident.Login, token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

// issue assembles and signs a token for an identity. The capability list
// and the favorite-entity ids are snapshotted at this instant.
func (s *Service) issue(ctx context.Context, ident *identity.Identity) (string, error) {
	caps, err := s.caps.Capabilities(ctx, ident.Role)
	if err != nil {
		return "", fmt.Errorf("session: capabilities for role %d: %w", ident.Role, err)
	}
	leagues, err := s.identities.FavoriteLeagueIDs(ctx, ident.ID)
	if err != nil {
		return "", fmt.Errorf("session: favorite leagues for %s: %w", ident.Login, err)
	}
	clubs, err := s.identities.FavoriteClubIDs(ctx, ident.ID)
	if err != nil {
		return "", fmt.Errorf("session: favorite clubs for %s: %w", ident.Login, err)
	}
	return s.signer.Sign(Claims{
		UserID:          ident.ID,
		UUID:            ident.UUID,
		Login:           ident.Login,
		Name:            ident.Name,
		Authorized:      ident.Authorized,
		Role:            ident.Role,
		LocaleID:        ident.LocaleID,
		Capabilities:    caps,
		FavoriteLeagues: leagues,
		FavoriteClubs:   clubs,
	})
}

// Validate is the full validity predicate: signature verifies AND the
// token is a registry member. A registry read failure is treated as
// invalid (fail closed).
func (s *Service) Validate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return nil, err
	}
	live, err := s.registry.IsValid(ctx, claims.Login, raw)
	if err != nil || !live {
		return nil, ErrIllegalToken
	}
	return claims, nil
}

// Refresh verifies the old token, recomputes capability and favorite
// snapshots and issues a replacement. The new token is registered BEFORE
// the old one is revoked, so at least one valid token exists for the login
// at every instant. The brief window where both verify is the accepted
// cost; the pair is not atomic and concurrent refresh/revoke on one login
// can race.
func (s *Service) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return "", err
	}
	ident, err := s.identities.FindByID(ctx, claims.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		return "", ErrIllegalToken
	}
	if err != nil {
		return "", fmt.Errorf("session: refresh %s: %w", claims.Login, err)
	}

	token, err := s.issue(ctx, ident)
	if err != nil {
		return "", err
	}
	if err := s.registry.Register(ctx, ident.Login, token); err != nil {
		return "", err
	}
	if err := s.registry.Revoke(ctx, ident.Login, raw); err != nil {
		return "", err
	}
	return token, nil
}

// Logout revokes a single token.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return err
	}
	return s.registry.Revoke(ctx, claims.Login, raw)
}

// RevokeAll force-logs-out every session of a login. Used whenever role,
// password or authorization changes so stale snapshots die with the
// tokens.
func (s *Service) RevokeAll(ctx context.Context, login string) error {
	return s.registry.RevokeAll(ctx, login)
}
