package fixtures

import (
	"context"
	"fmt"
	"time"

	"matchday.app/internal/cache"
)

// Cache namespaces owned by this package.
const (
	NamespaceGames   = "games"
	NamespaceLeagues = "leagues"
	NamespaceClubs   = "clubs"
)

// Games is the cached read/write surface over the document store. Reads go
// through the cache layer keyed by the filter parameters; every write
// invalidates the games namespace before returning, so a read issued after
// a successful write never sees a payload computed before it.
type Games struct {
	store Store
	cache *cache.Cache
	now   func() time.Time
}

// Option configures Games.
type Option func(*Games)

// WithClock overrides the time source; only intended for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Games) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGames(store Store, c *cache.Cache, opts ...Option) *Games {
	g := &Games{store: store, cache: c, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (f Filter) query() *cache.Query {
	return cache.NewQuery(NamespaceGames).
		Str("date", f.Date).
		Ints("leagues", f.Leagues).
		Ints("clubs", f.Clubs).
		Bool("bets", f.BetsOnly).
		Bool("potential_bets", f.PotentialBets).
		Int("limit", f.Limit)
}

// Find returns the games matching f, served from cache when possible.
func (g *Games) Find(ctx context.Context, f Filter) ([]Game, error) {
	return cache.Through(ctx, g.cache, f.query(), func(ctx context.Context) ([]Game, error) {
		return g.store.FindGames(ctx, f)
	})
}

// Refresh upserts a provider batch and drops the games cache.
func (g *Games) Refresh(ctx context.Context, games []Game) error {
	if err := g.store.UpsertGames(ctx, games); err != nil {
		return fmt.Errorf("fixtures: upsert games: %w", err)
	}
	return g.cache.Invalidate(ctx, NamespaceGames)
}

// SetBetStatus attaches or detaches the game from a season and drops the
// games cache.
func (g *Games) SetBetStatus(ctx context.Context, fixtureID int64, seasonID *int64) error {
	if err := g.store.SetBetStatus(ctx, fixtureID, seasonID); err != nil {
		return err
	}
	return g.cache.Invalidate(ctx, NamespaceGames)
}

// AttachOdds sets the odds on a fixture and drops the games cache.
func (g *Games) AttachOdds(ctx context.Context, fixtureID int64, odds Odds) error {
	if err := g.store.AttachOdds(ctx, fixtureID, odds); err != nil {
		return err
	}
	return g.cache.Invalidate(ctx, NamespaceGames)
}

// PlaceBet records the user's stake in the document and drops the games
// cache so lists show the new stake immediately.
func (g *Games) PlaceBet(ctx context.Context, fixtureID, userID int64, result GameResult) error {
	if err := g.store.PlaceBet(ctx, fixtureID, userID, result, g.now()); err != nil {
		return err
	}
	return g.cache.Invalidate(ctx, NamespaceGames)
}

// Leagues returns leagues by id set (all when empty), cached.
func (g *Games) Leagues(ctx context.Context, ids []int64) ([]League, error) {
	q := cache.NewQuery(NamespaceLeagues).Ints("ids", ids)
	return cache.Through(ctx, g.cache, q, func(ctx context.Context) ([]League, error) {
		return g.store.ListLeagues(ctx, ids)
	})
}

// Clubs returns clubs by id set (all when empty), cached.
func (g *Games) Clubs(ctx context.Context, ids []int64) ([]Club, error) {
	q := cache.NewQuery(NamespaceClubs).Ints("ids", ids)
	return cache.Through(ctx, g.cache, q, func(ctx context.Context) ([]Club, error) {
		return g.store.ListClubs(ctx, ids)
	})
}

// RefreshLeagues upserts a provider batch and drops the leagues cache.
func (g *Games) RefreshLeagues(ctx context.Context, leagues []League) error {
	if err := g.store.UpsertLeagues(ctx, leagues); err != nil {
		return fmt.Errorf("fixtures: upsert leagues: %w", err)
	}
	return g.cache.Invalidate(ctx, NamespaceLeagues)
}

// RefreshClubs upserts a provider batch and drops the clubs cache.
func (g *Games) RefreshClubs(ctx context.Context, clubs []Club) error {
	if err := g.store.UpsertClubs(ctx, clubs); err != nil {
		return fmt.Errorf("fixtures: upsert clubs: %w", err)
	}
	return g.cache.Invalidate(ctx, NamespaceClubs)
}
