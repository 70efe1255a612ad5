// Package fixtures holds the aggregate game documents and the cached read
// path over them. Games are fetched in bulk from the data provider and
// queried far more often than they change, so every aggregate read goes
// through the cache layer and every write invalidates the games namespace.
package fixtures

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound reports a fixture id with no stored game.
	ErrNotFound = errors.New("fixtures: not found")
	// ErrGameStarted reports a bet attempt past kickoff.
	ErrGameStarted = errors.New("fixtures: game already started")
)

// GameResult is the outcome of a finished game, seen from the home team.
type GameResult int

const (
	ResultWin  GameResult = 1
	ResultDraw GameResult = 2
	ResultLoss GameResult = 3
)

// Statuses the provider reports before kickoff or after full time.
const (
	StatusNotStarted   = "NS"
	StatusToBeDefined  = "TBD"
	StatusFullTime     = "FT"
	StatusExtraTime    = "AET"
	StatusPenalties    = "PEN"
)

// FixtureInfo is the provider's scheduling block for one game.
type FixtureInfo struct {
	ID        int64  `bson:"id" json:"id"`
	Date      string `bson:"date" json:"date"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
	Status    string `bson:"status" json:"status"`
}

// Team is one side of a game.
type Team struct {
	ID     int64  `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Logo   string `bson:"logo,omitempty" json:"logo,omitempty"`
	Winner *bool  `bson:"winner,omitempty" json:"winner,omitempty"`
}

// Teams pairs the two sides.
type Teams struct {
	Home Team `bson:"home" json:"home"`
	Away Team `bson:"away" json:"away"`
}

// Score holds the running and final goal counts.
type Score struct {
	Home *int `bson:"home,omitempty" json:"home,omitempty"`
	Away *int `bson:"away,omitempty" json:"away,omitempty"`
}

// Odds are the three-way odds attached once a bookmaker covers the game.
type Odds struct {
	Home float64 `bson:"home" json:"home"`
	Draw float64 `bson:"draw" json:"draw"`
	Away float64 `bson:"away" json:"away"`
}

// Better is one user's stake on the game, embedded in the document so the
// games list renders without a relational join.
type Better struct {
	UserID int64      `bson:"user_id" json:"user_id"`
	Result GameResult `bson:"game_result" json:"game_result"`
}

// League groups games under a competition.
type League struct {
	ID      int64  `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	Logo    string `bson:"logo,omitempty" json:"logo,omitempty"`
	Flag    string `bson:"flag,omitempty" json:"flag,omitempty"`
	Round   string `bson:"round,omitempty" json:"round,omitempty"`
}

// Club is a team known to the system; only clubs appearing in fixtures
// exist here.
type Club struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Logo string `bson:"logo,omitempty" json:"logo,omitempty"`
}

// Game is the aggregate fixture document. SeasonID doubles as the bet
// marker: a game with a season attached accepts bets.
type Game struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SeasonID    *int64             `bson:"season_id,omitempty" json:"season_id,omitempty"`
	ProcessedAs *GameResult        `bson:"processed_as,omitempty" json:"processed_as,omitempty"`
	Odds        *Odds              `bson:"odds,omitempty" json:"odds,omitempty"`
	Betters     []Better           `bson:"betters,omitempty" json:"betters,omitempty"`
	Result      *GameResult        `bson:"result,omitempty" json:"result,omitempty"`
	Fixture     FixtureInfo        `bson:"fixture" json:"fixture"`
	League      League             `bson:"league" json:"league"`
	Teams       Teams              `bson:"teams" json:"teams"`
	Goals       Score              `bson:"goals" json:"goals"`
	Score       Score              `bson:"score" json:"score"`
}

// Started reports whether kickoff has passed. Cancelled and postponed
// games count as not started.
func (g *Game) Started() bool {
	return g.Fixture.Status != StatusNotStarted && g.Fixture.Status != StatusToBeDefined
}

// Finished reports whether the game reached a final result.
func (g *Game) Finished() bool {
	switch g.Fixture.Status {
	case StatusFullTime, StatusExtraTime, StatusPenalties:
		return true
	}
	return false
}

// Biddable reports whether the game currently accepts bets: marked as a
// bet, odds attached and kickoff still ahead.
func (g *Game) Biddable(now time.Time) bool {
	return g.SeasonID != nil && g.Odds != nil && g.Fixture.Timestamp >= now.Unix()
}

// BetFor returns the user's stake on this game, if any.
func (g *Game) BetFor(userID int64) (GameResult, bool) {
	for _, b := range g.Betters {
		if b.UserID == userID {
			return b.Result, true
		}
	}
	return 0, false
}
