package cache

import (
	"strings"
	"testing"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := NewQuery("games").Str("date", "2024-05-01").Ints("leagues", []int64{39, 61}).Key()
	b := NewQuery("games").Ints("leagues", []int64{39, 61}).Str("date", "2024-05-01").Key()
	if a != b {
		t.Fatalf("parameter order changed the key: %s vs %s", a, b)
	}
}

func TestDefaultAndExplicitNoPreferenceHashIdentically(t *testing.T) {
	implicit := NewQuery("games").Str("date", "2024-05-01").Key()
	explicit := NewQuery("games").
		Str("date", "2024-05-01").
		Ints("leagues", nil).
		Ints("clubs", []int64{}).
		Bool("bets", false).
		Int("limit", 0).
		Str("name", "").
		Key()
	if implicit != explicit {
		t.Fatalf("no-preference values changed the key: %s vs %s", implicit, explicit)
	}
}

func TestIdSetOrderDoesNotChangeKey(t *testing.T) {
	a := NewQuery("games").Ints("leagues", []int64{61, 39, 140}).Key()
	b := NewQuery("games").Ints("leagues", []int64{140, 61, 39}).Key()
	if a != b {
		t.Fatalf("id order changed the key: %s vs %s", a, b)
	}
}

func TestDifferentParametersProduceDifferentKeys(t *testing.T) {
	a := NewQuery("games").Str("date", "2024-05-01").Key()
	b := NewQuery("games").Str("date", "2024-05-02").Key()
	if a == b {
		t.Fatal("distinct parameters collided")
	}
}

func TestKeyCarriesNamespacePrefix(t *testing.T) {
	key := NewQuery("games").Str("date", "2024-05-01").Key()
	if !strings.HasPrefix(key, "games::") {
		t.Fatalf("key misses namespace prefix: %s", key)
	}
}

func TestNamespacesDoNotCollide(t *testing.T) {
	a := NewQuery("games").Str("date", "2024-05-01").Key()
	b := NewQuery("leagues").Str("date", "2024-05-01").Key()
	if strings.TrimPrefix(a, "games") == strings.TrimPrefix(b, "leagues") {
		// Same hash is fine; full keys must differ.
		if a == b {
			t.Fatal("namespace did not separate keys")
		}
	}
}
