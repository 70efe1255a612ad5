// Package betting owns the authoritative relational records behind the
// stakes embedded in the fixture documents: the bet rows, the seasons they
// attach to and the scoreboard computed from validated outcomes. The
// document store renders fast; this package settles money.
package betting

import (
	"errors"

	"matchday.app/internal/fixtures"
)

var (
	// ErrNotFound reports a missing season or bet row.
	ErrNotFound = errors.New("betting: not found")
	// ErrNoCurrentSeason reports that no open main season exists, so no bet
	// can be attached anywhere.
	ErrNoCurrentSeason = errors.New("betting: no current season")
)

// Bet is one user's stake on a fixture. The (UserID, FixtureID) pair is
// the natural key; re-betting overwrites the previous stake.
type Bet struct {
	UserID    int64               `json:"user_id"`
	FixtureID int64               `json:"fixture_id"`
	Result    fixtures.GameResult `json:"result"`
	SeasonID  int64               `json:"season_id"`
	Stake     float64             `json:"stake"`
	// Outcome is nil until the fixture result is validated; then it holds
	// the points earned (stake*100 on a correct call, 0 otherwise).
	Outcome *int64 `json:"outcome,omitempty"`
}

// Season groups bets over a period. Exactly one season is main at a time;
// the open main season receives new bets.
type Season struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsMain   bool   `json:"is_main"`
	IsClosed bool   `json:"is_closed"`
}

// ScoreRow is one scoreboard line: a user and the points accumulated over
// the selected seasons.
type ScoreRow struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	Points int64  `json:"points"`
	Bets   int64  `json:"bets"`
}
