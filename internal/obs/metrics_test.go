package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                            "/",
		"/metrics":                    "/metrics",
		"/games":                      "/games",
		"/games?date=2024-05-01":      "/games",
		"/admin/users":                "/admin/users",
		"/admin/users/42":             "/admin/users/:id",
		"/admin/users/42/role":        "/admin/users/:id/role",
		"/assets/img/badge.png":       "/assets/*",
		"/login":                      "/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
