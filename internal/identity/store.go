package identity

import "context"

// Store is the identity persistence contract. Implementations return
// ErrNotFound for missing identities and propagate storage failures
// untranslated; callers wrap them at the boundary.
type Store interface {
	FindByLogin(ctx context.Context, login string) (*Identity, error)
	FindByID(ctx context.Context, id int64) (*Identity, error)
	FindByUUID(ctx context.Context, uuid string) (*Identity, error)
	// List returns a page of identities whose role is strictly below
	// roleCeiling, optionally filtered by a login fragment.
	List(ctx context.Context, roleCeiling, page, perPage int, loginFilter string) ([]Identity, error)
	LoginExists(ctx context.Context, login string) (bool, error)
	Insert(ctx context.Context, login, name, passwordHash string) error
	UpdateName(ctx context.Context, uuid, name string) error
	SetAuthorized(ctx context.Context, uuid string, authorized bool) error
	SetRole(ctx context.Context, uuid string, role int) error
	SetPassword(ctx context.Context, login, passwordHash string) error
	Delete(ctx context.Context, uuid string) error

	// Favorite-entity ids snapshotted into session tokens.
	FavoriteLeagueIDs(ctx context.Context, id int64) ([]int64, error)
	FavoriteClubIDs(ctx context.Context, id int64) ([]int64, error)
	AddFavoriteLeague(ctx context.Context, id, leagueID int64) error
	RemoveFavoriteLeague(ctx context.Context, id, leagueID int64) error
	AddFavoriteClub(ctx context.Context, id, clubID int64) error
	RemoveFavoriteClub(ctx context.Context, id, clubID int64) error
}

// CapabilityStore is the capability directory contract.
type CapabilityStore interface {
	// ForRole returns the role's capabilities ordered by position.
	ForRole(ctx context.Context, role int) ([]Capability, error)
	// Mapping returns the full role to capability mapping in one query,
	// fetched once at startup.
	Mapping(ctx context.Context) (map[int][]Capability, error)
}
