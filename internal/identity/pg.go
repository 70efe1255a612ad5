package identity

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
)

var (
	_ Store           = (*PGStore)(nil)
	_ CapabilityStore = (*PGCapabilityStore)(nil)
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const identityColumns = `id, uuid, login, name, password, is_authorized, role_id, locale_id`

func scanIdentity(row interface{ Scan(...any) error }) (*Identity, error) {
	var u Identity
	err := row.Scan(&u.ID, &u.UUID, &u.Login, &u.Name, &u.PasswordHash, &u.Authorized, &u.Role, &u.LocaleID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGStore) FindByLogin(ctx context.Context, login string) (*Identity, error) {
	return scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where login=$1`, login))
}

func (s *PGStore) FindByID(ctx context.Context, id int64) (*Identity, error) {
	return scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where id=$1`, id))
}

func (s *PGStore) FindByUUID(ctx context.Context, uid string) (*Identity, error) {
	return scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where uuid=$1`, uid))
}

func (s *PGStore) List(ctx context.Context, roleCeiling, page, perPage int, loginFilter string) ([]Identity, error) {
	if page < 0 {
		page = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+identityColumns+` from users
		 where role_id < $1 and ($2 = '' or login like '%' || $2 || '%')
		 order by id asc limit $3 offset $4`,
		roleCeiling, loginFilter, perPage, page*perPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		u, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *PGStore) LoginExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where login=$1)`, login).Scan(&exists)
	return exists, err
}

func (s *PGStore) Insert(ctx context.Context, login, name, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(uuid, login, name, password, is_authorized, role_id, locale_id)
		 values($1,$2,$3,$4,false,$5,1)`,
		uuid.NewString(), login, name, passwordHash, RoleUser)
	return err
}

func (s *PGStore) UpdateName(ctx context.Context, uid, name string) error {
	return s.exec(ctx, `update users set name=$2 where uuid=$1`, uid, name)
}

func (s *PGStore) SetAuthorized(ctx context.Context, uid string, authorized bool) error {
	return s.exec(ctx, `update users set is_authorized=$2 where uuid=$1`, uid, authorized)
}

func (s *PGStore) SetRole(ctx context.Context, uid string, role int) error {
	return s.exec(ctx, `update users set role_id=$2 where uuid=$1`, uid, role)
}

func (s *PGStore) SetPassword(ctx context.Context, login, passwordHash string) error {
	return s.exec(ctx, `update users set password=$2 where login=$1`, login, passwordHash)
}

func (s *PGStore) Delete(ctx context.Context, uid string) error {
	return s.exec(ctx, `delete from users where uuid=$1`, uid)
}

func (s *PGStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
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

func (s *PGStore) FavoriteLeagueIDs(ctx context.Context, id int64) ([]int64, error) {
	return s.favoriteIDs(ctx, `select league_id from user_league where user_id=$1 order by league_id`, id)
}

func (s *PGStore) FavoriteClubIDs(ctx context.Context, id int64) ([]int64, error) {
	return s.favoriteIDs(ctx, `select club_id from user_club where user_id=$1 order by club_id`, id)
}

func (s *PGStore) favoriteIDs(ctx context.Context, query string, id int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PGStore) AddFavoriteLeague(ctx context.Context, id, leagueID int64) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_league(user_id, league_id) values($1,$2) on conflict do nothing`,
		id, leagueID)
	return err
}

func (s *PGStore) RemoveFavoriteLeague(ctx context.Context, id, leagueID int64) error {
	_, err := s.db.ExecContext(ctx,
		`delete from user_league where user_id=$1 and league_id=$2`, id, leagueID)
	return err
}

func (s *PGStore) AddFavoriteClub(ctx context.Context, id, clubID int64) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_club(user_id, club_id) values($1,$2) on conflict do nothing`,
		id, clubID)
	return err
}

func (s *PGStore) RemoveFavoriteClub(ctx context.Context, id, clubID int64) error {
	_, err := s.db.ExecContext(ctx,
		`delete from user_club where user_id=$1 and club_id=$2`, id, clubID)
	return err
}

// PGCapabilityStore implements the capability directory on PostgreSQL.
type PGCapabilityStore struct {
	db *sql.DB
}

func NewPGCapabilityStore(db *sql.DB) *PGCapabilityStore {
	return &PGCapabilityStore{db: db}
}

func (s *PGCapabilityStore) ForRole(ctx context.Context, role int) ([]Capability, error) {
	rows, err := s.db.QueryContext(ctx,
		`select c.label, c.href, c.position
		 from capabilities c
		 join role_capability rc on rc.capability_id = c.id
		 where rc.role_id = $1
		 order by c.position asc`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capability
	for rows.Next() {
		var c Capability
		if err := rows.Scan(&c.Label, &c.Path, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGCapabilityStore) Mapping(ctx context.Context) (map[int][]Capability, error) {
	rows, err := s.db.QueryContext(ctx,
		`select rc.role_id, c.label, c.href, c.position
		 from capabilities c
		 join role_capability rc on rc.capability_id = c.id
		 order by rc.role_id, c.position asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mapping := make(map[int][]Capability)
	for rows.Next() {
		var (
			role int
			c    Capability
		)
		if err := rows.Scan(&role, &c.Label, &c.Path, &c.Position); err != nil {
			return nil, err
		}
		mapping[role] = append(mapping[role], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for role := range mapping {
		caps := mapping[role]
		sort.SliceStable(caps, func(i, j int) bool { return caps[i].Position < caps[j].Position })
	}
	return mapping, nil
}
