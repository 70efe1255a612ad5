package fixtures

import (
	"context"
	"time"
)

// Filter narrows a games lookup. Zero values mean no restriction; Leagues
// and Clubs are OR-combined with the bet flags, matching how the list page
// mixes favorite filters with bet views.
type Filter struct {
	// Date restricts to fixtures on a YYYY-MM-DD day.
	Date string
	// Leagues restricts to games of these league ids.
	Leagues []int64
	// Clubs restricts to games where either side is one of these clubs.
	Clubs []int64
	// BetsOnly keeps only games already marked as bets.
	BetsOnly bool
	// PotentialBets keeps games with odds attached; includes actual bets.
	PotentialBets bool
	// Limit caps the result count; zero means unlimited.
	Limit int64
}

// Store is the aggregate document store contract. Implementations do not
// cache; the caching read path sits above this interface.
type Store interface {
	// UpsertGames writes the batch keyed by provider fixture id.
	UpsertGames(ctx context.Context, games []Game) error
	// FindGames returns games matching the filter.
	FindGames(ctx context.Context, f Filter) ([]Game, error)
	// SetBetStatus attaches the game to a season (nil detaches it).
	// Returns ErrNotFound when the fixture id is unknown.
	SetBetStatus(ctx context.Context, fixtureID int64, seasonID *int64) error
	// AttachOdds sets the three-way odds on the fixture.
	AttachOdds(ctx context.Context, fixtureID int64, odds Odds) error
	// PlaceBet records the user's stake inside the document. The write only
	// lands while kickoff is ahead of now; a started game returns
	// ErrGameStarted.
	PlaceBet(ctx context.Context, fixtureID, userID int64, result GameResult, now time.Time) error

	UpsertLeagues(ctx context.Context, leagues []League) error
	ListLeagues(ctx context.Context, ids []int64) ([]League, error)
	UpsertClubs(ctx context.Context, clubs []Club) error
	ListClubs(ctx context.Context, ids []int64) ([]Club, error)
}
