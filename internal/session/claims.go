// Package session implements the credential verifier, the session token
// issuer and the server-side token registry. A token is valid only when its
// signature verifies AND it is still a registry member; the two checks are
// exposed as one predicate so no call site can trust the signature alone.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"matchday.app/internal/identity"
)

// ErrIllegalToken reports a token that failed verification. Forged and
// revoked tokens raise the same error on purpose: callers cannot tell them
// apart.
var ErrIllegalToken = errors.New("session: illegal token")

// NotAuthorizedError reports a login whose identity exists but whose access
// has not been granted yet.
type NotAuthorizedError struct {
	Login string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("session: user %s is not authorized", e.Login)
}

// Claims is the self-contained session credential. Everything the
// authorization pipeline needs is embedded at issuance: identity, role, the
// role's capability snapshot and the favorite-entity snapshot. Claims are
// immutable once signed; any permission change requires a new token and
// revocation of the old one.
type Claims struct {
	UserID          int64                 `json:"uid"`
	UUID            string                `json:"uuid"`
	Login           string                `json:"login"`
	Name            string                `json:"name"`
	Authorized      bool                  `json:"authorized"`
	Role            int                   `json:"role"`
	LocaleID        int                   `json:"locale,omitempty"`
	Capabilities    []identity.Capability `json:"capabilities"`
	FavoriteLeagues []int64               `json:"favorite_leagues,omitempty"`
	FavoriteClubs   []int64               `json:"favorite_clubs,omitempty"`
	// RefreshAfter is the unix timestamp past which a verified token gets
	// replaced mid-request.
	RefreshAfter int64 `json:"refresh_after"`
	jwt.RegisteredClaims
}

// NeedsRefresh reports whether the token is due for replacement.
func (c *Claims) NeedsRefresh(now time.Time) bool {
	return now.Unix() >= c.RefreshAfter
}

// Grants reports whether the capability snapshot includes the exact path.
func (c *Claims) Grants(path string) bool {
	return identity.AnyMatches(c.Capabilities, path)
}
