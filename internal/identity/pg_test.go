package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func identityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "uuid", "login", "name", "password", "is_authorized", "role_id", "locale_id"})
}

func TestFindByLoginReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where login=").
		WithArgs("ghost").
		WillReturnRows(identityRows())

	_, err = NewPGStore(db).FindByLogin(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByLoginScansIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where login=").
		WithArgs("alice").
		WillReturnRows(identityRows().
			AddRow(7, "4b8f", "alice", "Alice", "$2a$10$hash", true, RoleManager, 1))

	got, err := NewPGStore(db).FindByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByLogin: %v", err)
	}
	if got.ID != 7 || !got.Authorized || got.Role != RoleManager {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestListAppliesRoleCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users").
		WithArgs(RoleAdmin, "", 10, 0).
		WillReturnRows(identityRows().
			AddRow(1, "a", "alice", "Alice", "h", true, RoleUser, 1).
			AddRow(2, "b", "bob", "Bob", "h", false, RoleManager, 1))

	users, err := NewPGStore(db).List(context.Background(), RoleAdmin, 0, 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetAuthorizedOnMissingIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update users set is_authorized=").
		WithArgs("missing", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPGStore(db).SetAuthorized(context.Background(), "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCapabilityMappingGroupsByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select rc.role_id, c.label, c.href, c.position").
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "label", "href", "position"}).
			AddRow(RoleUser, "Games", "/games", 1).
			AddRow(RoleUser, "Profile", "/profile/edit", 2).
			AddRow(RoleAdmin, "Games", "/games", 1).
			AddRow(RoleAdmin, "Dashboard", "/admin/dashboard", 9))

	mapping, err := NewPGCapabilityStore(db).Mapping(context.Background())
	if err != nil {
		t.Fatalf("Mapping: %v", err)
	}
	if len(mapping[RoleUser]) != 2 || len(mapping[RoleAdmin]) != 2 {
		t.Fatalf("unexpected mapping: %+v", mapping)
	}
	if mapping[RoleUser][0].Path != "/games" {
		t.Fatalf("position ordering lost: %+v", mapping[RoleUser])
	}
}
