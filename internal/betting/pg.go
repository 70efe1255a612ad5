package betting

import (
	"context"
	"database/sql"

	"matchday.app/internal/fixtures"
)

// Store is the relational contract for bets, seasons and the scoreboard.
type Store interface {
	UpsertBet(ctx context.Context, bet Bet) error
	BetsForUser(ctx context.Context, userID, seasonID int64) ([]Bet, error)
	// SettleFixture scores every bet row of a fixture against the final
	// result and returns the number of rows settled.
	SettleFixture(ctx context.Context, fixtureID int64, result fixtures.GameResult) (int64, error)

	CreateSeason(ctx context.Context, name string) (int64, error)
	SeasonByID(ctx context.Context, id int64) (*Season, error)
	ListSeasons(ctx context.Context) ([]Season, error)
	// CloseSeason closes a non-main season; closing the main season is
	// refused with ErrNotFound since the row predicate excludes it.
	CloseSeason(ctx context.Context, id int64) error
	// SetMainSeason makes id the single main season.
	SetMainSeason(ctx context.Context, id int64) error
	// CurrentSeason returns the open main season.
	CurrentSeason(ctx context.Context) (*Season, error)

	Scoreboard(ctx context.Context, seasonID int64, limit int64) ([]ScoreRow, error)
}

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) UpsertBet(ctx context.Context, bet Bet) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_bet(user_id, fixture_id, result_id, season_id, stake)
		 values($1,$2,$3,$4,$5)
		 on conflict (user_id, fixture_id) do update set result_id=$3, stake=$5`,
		bet.UserID, bet.FixtureID, int(bet.Result), bet.SeasonID, bet.Stake)
	return err
}

func (s *PGStore) BetsForUser(ctx context.Context, userID, seasonID int64) ([]Bet, error) {
	rows, err := s.db.QueryContext(ctx,
		`select user_id, fixture_id, result_id, season_id, stake, outcome
		 from user_bet where user_id=$1 and season_id=$2 order by fixture_id`,
		userID, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var (
			b      Bet
			result int
		)
		if err := rows.Scan(&b.UserID, &b.FixtureID, &result, &b.SeasonID, &b.Stake, &b.Outcome); err != nil {
			return nil, err
		}
		b.Result = fixtures.GameResult(result)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PGStore) SettleFixture(ctx context.Context, fixtureID int64, result fixtures.GameResult) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`update user_bet
		 set outcome = case when result_id=$1 then (stake*100)::bigint else 0 end
		 where fixture_id=$2 and outcome is null`,
		int(result), fixtureID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PGStore) CreateSeason(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`insert into seasons(name, is_main, is_closed) values($1,false,false) returning id`,
		name).Scan(&id)
	return id, err
}

func scanSeason(row interface{ Scan(...any) error }) (*Season, error) {
	var se Season
	err := row.Scan(&se.ID, &se.Name, &se.IsMain, &se.IsClosed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &se, nil
}

func (s *PGStore) SeasonByID(ctx context.Context, id int64) (*Season, error) {
	return scanSeason(s.db.QueryRowContext(ctx,
		`select id, name, is_main, is_closed from seasons where id=$1`, id))
}

func (s *PGStore) ListSeasons(ctx context.Context) ([]Season, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, is_main, is_closed from seasons order by id desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Season
	for rows.Next() {
		se, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *se)
	}
	return out, rows.Err()
}

func (s *PGStore) CloseSeason(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`update seasons set is_closed=true where id=$1 and is_main=false`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SetMainSeason(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`update seasons set is_main = (id=$1)`, id)
	return err
}

func (s *PGStore) CurrentSeason(ctx context.Context) (*Season, error) {
	se, err := scanSeason(s.db.QueryRowContext(ctx,
		`select id, name, is_main, is_closed from seasons
		 where is_main=true and is_closed=false limit 1`))
	if err == ErrNotFound {
		return nil, ErrNoCurrentSeason
	}
	return se, err
}

func (s *PGStore) Scoreboard(ctx context.Context, seasonID int64, limit int64) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`select u.id, u.login, coalesce(sum(b.outcome),0) as points, count(b.fixture_id) as bets
		 from users u
		 join user_bet b on b.user_id = u.id
		 where ($1 = 0 or b.season_id = $1)
		 group by u.id, u.login
		 order by points desc, u.login asc
		 limit $2`,
		seasonID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		if err := rows.Scan(&r.UserID, &r.Login, &r.Points, &r.Bets); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
