package session

import (
	"context"
	"fmt"

	"matchday.app/internal/kv"
)

const registryPrefix = "token::"

// Registry is the server-side allow-list of live tokens, one set per
// login. A token can verify cryptographically yet be invalid if it is
// absent from its login's set.
//
// Mutations propagate store errors: a silently dropped revoke would leave
// a session wrongly valid. Reads fail closed at the call sites.
type Registry struct {
	store kv.Store
}

// NewRegistry builds a registry over the shared keyed store.
func NewRegistry(store kv.Store) *Registry {
	return &Registry{store: store}
}

func registryKey(login string) string {
	return registryPrefix + login
}

// Register adds a freshly issued token to the login's live set.
func (r *Registry) Register(ctx context.Context, login, token string) error {
	if err := r.store.SAdd(ctx, registryKey(login), token); err != nil {
		return fmt.Errorf("session: register token for %s: %w", login, err)
	}
	return nil
}

// Revoke removes a single token: one-session logout.
func (r *Registry) Revoke(ctx context.Context, login, token string) error {
	if err := r.store.SRem(ctx, registryKey(login), token); err != nil {
		return fmt.Errorf("session: revoke token for %s: %w", login, err)
	}
	return nil
}

// RevokeAll clears every live token for the login: forced global logout on
// role, password or authorization change.
func (r *Registry) RevokeAll(ctx context.Context, login string) error {
	if err := r.store.Del(ctx, registryKey(login)); err != nil {
		return fmt.Errorf("session: revoke all tokens for %s: %w", login, err)
	}
	return nil
}

// IsValid is the pure membership test. It does not verify the signature;
// use Service.Validate for the combined predicate.
func (r *Registry) IsValid(ctx context.Context, login, token string) (bool, error) {
	ok, err := r.store.SIsMember(ctx, registryKey(login), token)
	if err != nil {
		return false, fmt.Errorf("session: verify token for %s: %w", login, err)
	}
	return ok, nil
}
