package betting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"matchday.app/internal/cache"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/kv"
)

// Cache namespaces and keys owned by this package.
const (
	NamespaceSeasons    = "seasons"
	NamespaceScoreboard = "scoreboard"

	currentSeasonKey = "current_season_id"
	currentSeasonTTL = 5 * time.Minute
)

// Service coordinates the relational bet records with the fixture
// documents. A placed bet lands in both stores; the document write carries
// the kickoff guard, so it runs first and a late bet never reaches SQL.
type Service struct {
	store Store
	games *fixtures.Games
	cache *cache.Cache
	kv    kv.Store
}

func NewService(store Store, games *fixtures.Games, c *cache.Cache, kvStore kv.Store) *Service {
	return &Service{store: store, games: games, cache: c, kv: kvStore}
}

// CurrentSeasonID returns the open main season id, cached briefly in the
// keyed store since it changes only on admin action.
func (s *Service) CurrentSeasonID(ctx context.Context) (int64, error) {
	raw, ok, err := s.kv.GetEx(ctx, currentSeasonKey, currentSeasonTTL)
	if err == nil && ok {
		if id, perr := strconv.ParseInt(string(raw), 10, 64); perr == nil {
			return id, nil
		}
	}
	season, err := s.store.CurrentSeason(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.kv.Set(ctx, currentSeasonKey, []byte(strconv.FormatInt(season.ID, 10)), currentSeasonTTL); err != nil {
		return 0, fmt.Errorf("betting: cache season id: %w", err)
	}
	return season.ID, nil
}

// Place records a stake for the user on a fixture within the current
// season. The stake is the home/draw/away odd the user took.
func (s *Service) Place(ctx context.Context, userID, fixtureID int64, result fixtures.GameResult, stake float64) error {
	seasonID, err := s.CurrentSeasonID(ctx)
	if err != nil {
		return err
	}
	if err := s.games.PlaceBet(ctx, fixtureID, userID, result); err != nil {
		return err
	}
	return s.store.UpsertBet(ctx, Bet{
		UserID:    userID,
		FixtureID: fixtureID,
		Result:    result,
		SeasonID:  seasonID,
		Stake:     stake,
	})
}

// BetsForUser lists the user's bets in the given season (current season
// when zero).
func (s *Service) BetsForUser(ctx context.Context, userID, seasonID int64) ([]Bet, error) {
	if seasonID == 0 {
		var err error
		seasonID, err = s.CurrentSeasonID(ctx)
		if err != nil {
			return nil, err
		}
	}
	return s.store.BetsForUser(ctx, userID, seasonID)
}

// Settle scores every open bet on the fixture and drops the scoreboard
// cache when anything changed.
func (s *Service) Settle(ctx context.Context, fixtureID int64, result fixtures.GameResult) (int64, error) {
	n, err := s.store.SettleFixture(ctx, fixtureID, result)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.cache.Invalidate(ctx, NamespaceScoreboard); err != nil {
			return n, err
		}
	}
	return n, nil
}

// CreateSeason adds a season, closed to bets until it is made main.
func (s *Service) CreateSeason(ctx context.Context, name string) (int64, error) {
	id, err := s.store.CreateSeason(ctx, name)
	if err != nil {
		return 0, err
	}
	return id, s.cache.Invalidate(ctx, NamespaceSeasons)
}

// CloseSeason closes a non-main season.
func (s *Service) CloseSeason(ctx context.Context, id int64) error {
	if err := s.store.CloseSeason(ctx, id); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, NamespaceSeasons)
}

// SetMainSeason switches which season receives new bets.
func (s *Service) SetMainSeason(ctx context.Context, id int64) error {
	if err := s.store.SetMainSeason(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Del(ctx, currentSeasonKey); err != nil {
		return fmt.Errorf("betting: drop season id cache: %w", err)
	}
	return s.cache.Invalidate(ctx, NamespaceSeasons)
}

// Seasons lists all seasons, cached.
func (s *Service) Seasons(ctx context.Context) ([]Season, error) {
	q := cache.NewQuery(NamespaceSeasons)
	return cache.Through(ctx, s.cache, q, func(ctx context.Context) ([]Season, error) {
		return s.store.ListSeasons(ctx)
	})
}

// Scoreboard returns the ranked rows for a season (all time when zero),
// cached.
func (s *Service) Scoreboard(ctx context.Context, seasonID, limit int64) ([]ScoreRow, error) {
	q := cache.NewQuery(NamespaceScoreboard).Int("season", seasonID).Int("limit", limit)
	return cache.Through(ctx, s.cache, q, func(ctx context.Context) ([]ScoreRow, error) {
		return s.store.Scoreboard(ctx, seasonID, limit)
	})
}
