package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"matchday.app/internal/abuse"
	"matchday.app/internal/betting"
	"matchday.app/internal/cache"
	"matchday.app/internal/config"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/identity"
	"matchday.app/internal/kv"
	"matchday.app/internal/session"
)

// sharedHash is computed once; bcrypt is deliberately slow and every seeded
// account uses the same password.
var sharedHash string

func init() {
	h, err := identity.HashPassword("opensesame")
	if err != nil {
		panic(err)
	}
	sharedHash = h
}

type fakeIdentities struct {
	byLogin map[string]*identity.Identity
	leagues map[int64][]int64
	clubs   map[int64][]int64
}

func newFakeIdentities() *fakeIdentities {
	f := &fakeIdentities{
		byLogin: make(map[string]*identity.Identity),
		leagues: make(map[int64][]int64),
		clubs:   make(map[int64][]int64),
	}
	f.seed(&identity.Identity{ID: 1, UUID: "u-nora", Login: "nora", Name: "Nora", Authorized: true, Role: identity.RoleUser})
	f.seed(&identity.Identity{ID: 2, UUID: "u-pending", Login: "pending", Name: "Pending", Authorized: false, Role: identity.RoleUser})
	f.seed(&identity.Identity{ID: 3, UUID: "u-marta", Login: "marta", Name: "Marta", Authorized: true, Role: identity.RoleManager})
	f.seed(&identity.Identity{ID: 4, UUID: "u-astrid", Login: "astrid", Name: "Astrid", Authorized: true, Role: identity.RoleAdmin})
	f.leagues[1] = []int64{39}
	f.clubs[1] = []int64{42}
	return f
}

func (f *fakeIdentities) seed(ident *identity.Identity) {
	ident.PasswordHash = sharedHash
	f.byLogin[ident.Login] = ident
}

func (f *fakeIdentities) FindByLogin(_ context.Context, login string) (*identity.Identity, error) {
	if ident, ok := f.byLogin[login]; ok {
		cp := *ident
		return &cp, nil
	}
	return nil, identity.ErrNotFound
}

func (f *fakeIdentities) FindByID(_ context.Context, id int64) (*identity.Identity, error) {
	for _, ident := range f.byLogin {
		if ident.ID == id {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeIdentities) FindByUUID(_ context.Context, uuid string) (*identity.Identity, error) {
	for _, ident := range f.byLogin {
		if ident.UUID == uuid {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeIdentities) List(_ context.Context, roleCeiling, _, _ int, loginFilter string) ([]identity.Identity, error) {
	var out []identity.Identity
	for _, ident := range f.byLogin {
		if ident.Role >= roleCeiling {
			continue
		}
		if loginFilter != "" && !strings.Contains(ident.Login, loginFilter) {
			continue
		}
		out = append(out, *ident)
	}
	return out, nil
}

func (f *fakeIdentities) LoginExists(_ context.Context, login string) (bool, error) {
	_, ok := f.byLogin[login]
	return ok, nil
}

func (f *fakeIdentities) Insert(_ context.Context, login, name, passwordHash string) error {
	f.byLogin[login] = &identity.Identity{
		ID:           int64(len(f.byLogin) + 1),
		UUID:         "u-" + login,
		Login:        login,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         identity.RoleUser,
	}
	return nil
}

func (f *fakeIdentities) mutateByUUID(uuid string, fn func(*identity.Identity)) error {
	for _, ident := range f.byLogin {
		if ident.UUID == uuid {
			fn(ident)
			return nil
		}
	}
	return identity.ErrNotFound
}

func (f *fakeIdentities) UpdateName(_ context.Context, uuid, name string) error {
	return f.mutateByUUID(uuid, func(i *identity.Identity) { i.Name = name })
}

func (f *fakeIdentities) SetAuthorized(_ context.Context, uuid string, authorized bool) error {
	return f.mutateByUUID(uuid, func(i *identity.Identity) { i.Authorized = authorized })
}

func (f *fakeIdentities) SetRole(_ context.Context, uuid string, role int) error {
	return f.mutateByUUID(uuid, func(i *identity.Identity) { i.Role = role })
}

func (f *fakeIdentities) SetPassword(_ context.Context, login, passwordHash string) error {
	ident, ok := f.byLogin[login]
	if !ok {
		return identity.ErrNotFound
	}
	ident.PasswordHash = passwordHash
	return nil
}

func (f *fakeIdentities) Delete(_ context.Context, uuid string) error {
	for login, ident := range f.byLogin {
		if ident.UUID == uuid {
			delete(f.byLogin, login)
			return nil
		}
	}
	return identity.ErrNotFound
}

func (f *fakeIdentities) FavoriteLeagueIDs(_ context.Context, id int64) ([]int64, error) {
	return f.leagues[id], nil
}

func (f *fakeIdentities) FavoriteClubIDs(_ context.Context, id int64) ([]int64, error) {
	return f.clubs[id], nil
}

func (f *fakeIdentities) AddFavoriteLeague(_ context.Context, id, leagueID int64) error {
	f.leagues[id] = append(f.leagues[id], leagueID)
	return nil
}

func (f *fakeIdentities) RemoveFavoriteLeague(_ context.Context, id, leagueID int64) error {
	kept := f.leagues[id][:0]
	for _, l := range f.leagues[id] {
		if l != leagueID {
			kept = append(kept, l)
		}
	}
	f.leagues[id] = kept
	return nil
}

func (f *fakeIdentities) AddFavoriteClub(_ context.Context, id, clubID int64) error {
	f.clubs[id] = append(f.clubs[id], clubID)
	return nil
}

func (f *fakeIdentities) RemoveFavoriteClub(_ context.Context, id, clubID int64) error {
	kept := f.clubs[id][:0]
	for _, c := range f.clubs[id] {
		if c != clubID {
			kept = append(kept, c)
		}
	}
	f.clubs[id] = kept
	return nil
}

type fakeGamesStore struct {
	fixtures.Store
	games       []fixtures.Game
	placeErr    error
	placedBets  int
	lastFixture int64
}

func (f *fakeGamesStore) FindGames(context.Context, fixtures.Filter) ([]fixtures.Game, error) {
	return f.games, nil
}

func (f *fakeGamesStore) PlaceBet(_ context.Context, fixtureID, _ int64, _ fixtures.GameResult, _ time.Time) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	f.placedBets++
	f.lastFixture = fixtureID
	return nil
}

type fakeBetStore struct {
	betting.Store
	current        *betting.Season
	seasons        []betting.Season
	bets           []betting.Bet
	closedID       int64
	createdID      int64
	settledFixture int64
}

func (f *fakeBetStore) CurrentSeason(context.Context) (*betting.Season, error) {
	if f.current == nil {
		return nil, betting.ErrNoCurrentSeason
	}
	return f.current, nil
}

func (f *fakeBetStore) UpsertBet(_ context.Context, bet betting.Bet) error {
	f.bets = append(f.bets, bet)
	return nil
}

func (f *fakeBetStore) BetsForUser(_ context.Context, userID, seasonID int64) ([]betting.Bet, error) {
	var out []betting.Bet
	for _, b := range f.bets {
		if b.UserID == userID && b.SeasonID == seasonID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBetStore) ListSeasons(context.Context) ([]betting.Season, error) {
	return f.seasons, nil
}

func (f *fakeBetStore) CreateSeason(_ context.Context, name string) (int64, error) {
	f.createdID++
	f.seasons = append(f.seasons, betting.Season{ID: f.createdID, Name: name, IsClosed: true})
	return f.createdID, nil
}

func (f *fakeBetStore) CloseSeason(_ context.Context, id int64) error {
	f.closedID = id
	return nil
}

func (f *fakeBetStore) SettleFixture(_ context.Context, fixtureID int64, _ fixtures.GameResult) (int64, error) {
	f.settledFixture = fixtureID
	return 2, nil
}

func capsForRole(role int) []identity.Capability {
	caps := []identity.Capability{
		{Label: "games", Path: "/games", Position: 1},
		{Label: "bets", Path: "/bets", Position: 2},
		{Label: "scoreboard", Path: "/scoreboard", Position: 3},
		{Label: "profile", Path: "/profile/edit", Position: 4},
	}
	if role >= identity.RoleManager {
		caps = append(caps, identity.Capability{Label: "users", Path: "/admin/users", Position: 5})
	}
	if role >= identity.RoleAdmin {
		caps = append(caps, identity.Capability{Label: "seasons", Path: "/admin/seasons", Position: 6})
	}
	return caps
}

type testEnv struct {
	api    *API
	cfg    config.Config
	idents *fakeIdentities
	games  *fakeGamesStore
	bets   *fakeBetStore
	slept  []time.Duration
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Config{
		SigningKey:     strings.Repeat("k", config.MinSigningKeyLen),
		SessionCookie:  "session-token",
		ConsentCookie:  "cookies-approved",
		SessionTTL:     time.Hour,
		RefreshAfter:   30 * time.Minute,
		LoginDelay:     0,
		BanThreshold:   100,
		CacheReadTTL:   time.Minute,
		CacheWriteTTL:  time.Minute,
		AssetsBasePath: "/assets",
		TrustedHosts:   []string{"matchday.test"},
		BypassedPaths:  []string{"/cookies/approve"},
	}
	if tweak != nil {
		tweak(&cfg)
	}

	signer, err := session.NewSigner(cfg.SigningKey, cfg.SessionTTL, cfg.RefreshAfter)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	idents := newFakeIdentities()
	sessions := session.NewService(idents,
		session.CapabilitySourceFunc(func(_ context.Context, role int) ([]identity.Capability, error) {
			return capsForRole(role), nil
		}),
		signer, session.NewRegistry(kv.NewMemory()))

	store := kv.NewMemory()
	c := cache.New(store, cfg.CacheReadTTL, cfg.CacheWriteTTL)
	gamesStore := &fakeGamesStore{}
	games := fixtures.NewGames(gamesStore, c)
	betStore := &fakeBetStore{current: &betting.Season{ID: 7, Name: "2026", IsMain: true}}
	bets := betting.NewService(betStore, games, c, store)

	env := &testEnv{cfg: cfg, idents: idents, games: gamesStore, bets: betStore}
	env.api = New(cfg, Deps{
		Sessions:   sessions,
		Identities: idents,
		Games:      games,
		FetchLog:   fixtures.NewFetchLog(store),
		Bets:       bets,
		Tracker:    abuse.NewTracker(store, cfg.BanThreshold),
		Signer:     signer,
	}, "test")
	env.api.sleep = func(_ context.Context, d time.Duration) {
		env.slept = append(env.slept, d)
	}
	return env
}

func (env *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.api.mux.ServeHTTP(w, r)
	return w
}

func (env *testEnv) consent() *http.Cookie {
	return &http.Cookie{Name: env.cfg.ConsentCookie, Value: "1"}
}

func (env *testEnv) login(t *testing.T, login, password string) *http.Cookie {
	t.Helper()
	body := fmt.Sprintf(`{"login":%q,"password":%q}`, login, password)
	w := env.do(http.MethodPost, "/login", body, env.consent())
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body %s", login, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == env.cfg.SessionCookie {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatalf("login %s: no session cookie in response", login)
	return nil
}

type errBody struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
	Redirect    string `json:"redirect"`
}

func decodeErrBody(t *testing.T, w *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return b
}

func TestLoginIssuesWorkingSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")

	w := env.do(http.MethodGet, "/games", "", env.consent(), sess)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /games: status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"games"`) {
		t.Fatalf("GET /games: body %s misses games key", w.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, tt := range []struct {
		name, login, password string
	}{
		{"unknown login", "ghost", "opensesame"},
		{"wrong password", "nora", "wrong"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"login":%q,"password":%q}`, tt.login, tt.password)
			w := env.do(http.MethodPost, "/login", body, env.consent())
			if w.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", w.Code)
			}
		})
	}
}

func TestLoginRejectsUnauthorizedAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodPost, "/login", `{"login":"pending","password":"opensesame"}`, env.consent())
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if b := decodeErrBody(t, w); !strings.Contains(b.Description, "pending") {
		t.Fatalf("description %q does not name the login", b.Description)
	}
}

func TestLoginDelayCoversEveryOutcome(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.LoginDelay = 3 * time.Second })
	for _, body := range []string{
		`{"login":"nora","password":"opensesame"}`,
		`{"login":"ghost","password":"x"}`,
		`{"login":"pending","password":"opensesame"}`,
	} {
		env.do(http.MethodPost, "/login", body, env.consent())
	}
	if len(env.slept) != 3 {
		t.Fatalf("sleep calls = %d, want 3", len(env.slept))
	}
	for i, d := range env.slept {
		if d < 2*time.Second {
			t.Fatalf("sleep %d = %v, want close to the full delay", i, d)
		}
	}
}

func TestConsentGate(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/cookies" {
		t.Fatalf("GET / without consent: status = %d location %q", w.Code, w.Header().Get("Location"))
	}

	w = env.do(http.MethodGet, "/games", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("GET /games without consent: status = %d, want 400", w.Code)
	}
	if b := decodeErrBody(t, w); b.Redirect != "/cookies" {
		t.Fatalf("redirect = %q, want /cookies", b.Redirect)
	}

	// Authentication endpoints wait behind the approval like everything
	// else; only the consent-granting path is reachable without the cookie.
	for _, p := range []string{"/login", "/signup"} {
		w = env.do(http.MethodPost, p, `{"login":"nora","password":"opensesame"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("POST %s without consent: status = %d, want 400", p, w.Code)
		}
		if b := decodeErrBody(t, w); b.Redirect != "/cookies" {
			t.Fatalf("POST %s without consent: redirect = %q, want /cookies", p, b.Redirect)
		}
	}

	w = env.do(http.MethodPost, "/cookies/approve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /cookies/approve: status = %d", w.Code)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == env.cfg.ConsentCookie {
			found = true
		}
	}
	if !found {
		t.Fatal("approve response misses the consent cookie")
	}
}

func TestProtectedRouteNeedsSessionCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/games", "", env.consent())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")

	w := env.do(http.MethodPost, "/logout", "", env.consent(), sess)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	w = env.do(http.MethodGet, "/games", "", env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reuse after logout: status = %d, want 400", w.Code)
	}
	if b := decodeErrBody(t, w); b.Redirect != "/logout" {
		t.Fatalf("redirect = %q, want /logout", b.Redirect)
	}
}

func TestCapabilityGateBlocksUngrantedPath(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")
	w := env.do(http.MethodGet, "/admin/users", "", env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAdminListHonorsRoleCeiling(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "marta", "opensesame")
	w := env.do(http.MethodGet, "/admin/users", "", env.consent(), sess)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, visible := range []string{"nora", "pending"} {
		if !strings.Contains(body, visible) {
			t.Fatalf("listing misses %s: %s", visible, body)
		}
	}
	for _, hidden := range []string{"marta", "astrid"} {
		if strings.Contains(body, hidden) {
			t.Fatalf("listing leaks %s: %s", hidden, body)
		}
	}
}

func TestAdminMutationRefusedAboveCeiling(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "marta", "opensesame")
	w := env.do(http.MethodPost, "/admin/users",
		`{"uuid":"u-astrid","action":"revoke"}`, env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !env.idents.byLogin["astrid"].Authorized {
		t.Fatal("astrid was revoked past the role ceiling")
	}
}

func TestAdminMutationKillsSubjectSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	noraSess := env.login(t, "nora", "opensesame")
	adminSess := env.login(t, "astrid", "opensesame")

	w := env.do(http.MethodPost, "/admin/users",
		`{"uuid":"u-nora","action":"role","role":2}`, env.consent(), adminSess)
	if w.Code != http.StatusOK {
		t.Fatalf("mutation: status = %d, body %s", w.Code, w.Body.String())
	}
	if env.idents.byLogin["nora"].Role != identity.RoleManager {
		t.Fatalf("role = %d, want %d", env.idents.byLogin["nora"].Role, identity.RoleManager)
	}

	// The old token carries the stale snapshot and must be dead.
	w = env.do(http.MethodGet, "/games", "", env.consent(), noraSess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stale token: status = %d, want 400", w.Code)
	}
}

func TestSignupThenLoginUnauthorized(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/signup",
		`{"login":"newbie","name":"New","password":"opensesame"}`, env.consent())
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d, body %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/signup",
		`{"login":"newbie","name":"New","password":"opensesame"}`, env.consent())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup: status = %d, want 400", w.Code)
	}

	w = env.do(http.MethodPost, "/login",
		`{"login":"newbie","password":"opensesame"}`, env.consent())
	if w.Code != http.StatusForbidden {
		t.Fatalf("login before approval: status = %d, want 403", w.Code)
	}
}

func TestPlaceBet(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")

	w := env.do(http.MethodPost, "/bets",
		`{"fixture_id":10,"result":1,"stake":1.5}`, env.consent(), sess)
	if w.Code != http.StatusCreated {
		t.Fatalf("place: status = %d, body %s", w.Code, w.Body.String())
	}
	if env.games.placedBets != 1 || env.games.lastFixture != 10 {
		t.Fatalf("document write: placed = %d fixture = %d", env.games.placedBets, env.games.lastFixture)
	}
	if len(env.bets.bets) != 1 || env.bets.bets[0].SeasonID != 7 {
		t.Fatalf("relational write: %+v", env.bets.bets)
	}

	w = env.do(http.MethodGet, "/bets", "", env.consent(), sess)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"fixture_id":10`) {
		t.Fatalf("list: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestPlaceBetOnStartedGame(t *testing.T) {
	env := newTestEnv(t, nil)
	env.games.placeErr = fixtures.ErrGameStarted
	sess := env.login(t, "nora", "opensesame")

	w := env.do(http.MethodPost, "/bets",
		`{"fixture_id":10,"result":1,"stake":1.5}`, env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(env.bets.bets) != 0 {
		t.Fatal("relational bet recorded despite the kickoff guard")
	}
}

func TestPlaceBetInvalidResult(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")
	w := env.do(http.MethodPost, "/bets",
		`{"fixture_id":10,"result":9,"stake":1.5}`, env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAdminSeasons(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "astrid", "opensesame")

	w := env.do(http.MethodPost, "/admin/seasons",
		`{"action":"create","name":"2027"}`, env.consent(), sess)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/admin/seasons",
		`{"action":"close","id":1}`, env.consent(), sess)
	if w.Code != http.StatusOK {
		t.Fatalf("close: status = %d, body %s", w.Code, w.Body.String())
	}
	if env.bets.closedID != 1 {
		t.Fatalf("closed id = %d, want 1", env.bets.closedID)
	}

	w = env.do(http.MethodGet, "/admin/seasons", "", env.consent(), sess)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "2027") {
		t.Fatalf("list: status = %d, body %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/admin/seasons",
		`{"action":"settle","fixture_id":10,"result":1}`, env.consent(), sess)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"settled":2`) {
		t.Fatalf("settle: status = %d, body %s", w.Code, w.Body.String())
	}
	if env.bets.settledFixture != 10 {
		t.Fatalf("settled fixture = %d, want 10", env.bets.settledFixture)
	}
}

func TestProfileEditRevokesOwnSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.login(t, "nora", "opensesame")

	w := env.do(http.MethodPost, "/profile/edit",
		`{"name":"Nora B"}`, env.consent(), sess)
	if w.Code != http.StatusOK {
		t.Fatalf("edit: status = %d, body %s", w.Code, w.Body.String())
	}
	if env.idents.byLogin["nora"].Name != "Nora B" {
		t.Fatalf("name = %q", env.idents.byLogin["nora"].Name)
	}

	w = env.do(http.MethodGet, "/games", "", env.consent(), sess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stale token after edit: status = %d, want 400", w.Code)
	}
}

func TestAbuseBanAfterRepeatedClientErrors(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.BanThreshold = 2 })

	// Three malformed logins each earn a 400 and feed the counter.
	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/login", `{`, env.consent())
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d, want 400", i, w.Code)
		}
	}

	w := env.do(http.MethodPost, "/login", `{"login":"nora","password":"opensesame"}`, env.consent())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("banned peer: status = %d, want 400", w.Code)
	}
	if b := decodeErrBody(t, w); !strings.Contains(b.Description, "banned") {
		t.Fatalf("description %q does not mention the ban", b.Description)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/healthz: status = %d", w.Code)
	}
	w = env.do(http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/readyz: status = %d", w.Code)
	}
}
