package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/lockerkeeper/internal/logging"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/lockers"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/views"
)

const (
	testCookie = "test_session"
	adminPass  = "open-sesame"
	otherPass  = "chalkboard"
)

var csrfRe = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]+)"`)

type testEnv struct {
	srv   *httptest.Server
	store *sessions.Store
}

func newTestEnv(t *testing.T, opts sessions.Options) *testEnv {
	t.Helper()

	hash := func(pw string) string {
		h, err := auth.HashPasswordWithCost([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return h
	}

	store := sessions.NewStore(opts)
	gate := auth.NewAuthenticator(map[string]string{
		"admin": hash(adminPass),
		"staff": hash(otherPass),
	}, logging.NopLogger{})

	h, err := NewHandler(store, gate, metrics.New(store.Len), logging.NopLogger{}, Options{
		AdminUser:    "admin",
		CookieName:   testCookie,
		CookieKey:    []byte("test-cookie-key"),
		CookieExpiry: time.Hour,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: store}
}

func defaultEnv(t *testing.T) *testEnv {
	t.Helper()
	opts := sessions.DefaultOptions()
	opts.LoginEvery = 0
	return newTestEnv(t, opts)
}

type visitor struct {
	t      *testing.T
	env    *testEnv
	client *http.Client
	csrf   string
}

func (e *testEnv) newVisitor(t *testing.T) *visitor {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &visitor{t: t, env: e, client: &http.Client{Jar: jar}}
}

func (v *visitor) get(path string) string {
	v.t.Helper()
	resp, err := v.client.Get(v.env.srv.URL + path)
	require.NoError(v.t, err)
	return v.readPage(resp)
}

// post submits a form and follows the redirect to the page it lands on.
func (v *visitor) post(path string, form url.Values) string {
	v.t.Helper()
	resp := v.postRaw(path, form, true)
	return v.readPage(resp)
}

func (v *visitor) postRaw(path string, form url.Values, withToken bool) *http.Response {
	v.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if withToken {
		if v.csrf == "" {
			v.get("/")
		}
		form.Set("csrf_token", v.csrf)
	}
	resp, err := v.client.PostForm(v.env.srv.URL+path, form)
	require.NoError(v.t, err)
	return resp
}

func (v *visitor) readPage(resp *http.Response) string {
	v.t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(v.t, err)
	require.Equal(v.t, http.StatusOK, resp.StatusCode, string(b))

	body := string(b)
	if m := csrfRe.FindStringSubmatch(body); m != nil {
		v.csrf = m[1]
	}
	return body
}

func (v *visitor) login(user, pass string) string {
	v.t.Helper()
	return v.post("/admin/login", url.Values{"username": {user}, "password": {pass}})
}

func freeRow(no string) string { return "<tr><td>" + no + "</td></tr>" }

func freeOption(no string) string { return `<option value="` + no + `">` + no + `</option>` }

func rosterRow(no, id, name string) string {
	return "<td>" + no + "</td><td>" + id + "</td><td>" + name + "</td>"
}

func TestViewerPage_InitialState(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)

	body := v.get("/")

	assert.Contains(t, body, "200 of 200 free")
	assert.Contains(t, body, freeRow("001"))
	assert.Contains(t, body, freeRow("200"))
	assert.Contains(t, body, freeOption("001"))
	assert.NotEmpty(t, v.csrf)
}

func TestRegisterThenReleaseEndToEnd(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/")

	body := v.post("/register", url.Values{
		"locker_no": {"001"}, "student_id": {"S1001"}, "student_name": {"Tanaka"},
	})
	assert.Contains(t, body, views.MsgRegistered("001", "Tanaka"))
	assert.NotContains(t, body, freeRow("001"))
	assert.NotContains(t, body, freeOption("001"))
	assert.Contains(t, body, "199 of 200 free")

	v.login("admin", adminPass)
	admin := v.get("/admin")
	assert.Contains(t, admin, rosterRow("001", "S1001", "Tanaka"))
	assert.Contains(t, admin, `action="/admin/lockers/001/release"`)

	admin = v.post("/admin/lockers/001/release", nil)
	assert.Contains(t, admin, views.MsgReleased("001"))
	assert.Contains(t, admin, rosterRow("001", views.Placeholder, views.Placeholder))
	assert.NotContains(t, admin, `action="/admin/lockers/001/release"`)

	body = v.get("/")
	assert.Contains(t, body, freeRow("001"))
	assert.Contains(t, body, freeOption("001"))
}

func TestRegister_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"empty id", url.Values{"locker_no": {"001"}, "student_id": {""}, "student_name": {"Tanaka"}}},
		{"empty name", url.Values{"locker_no": {"001"}, "student_id": {"S1001"}, "student_name": {""}}},
		{"fields absent", url.Values{"locker_no": {"001"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaultEnv(t).newVisitor(t)
			v.get("/")

			body := v.post("/register", tt.form)

			assert.Contains(t, body, views.MsgMissingFields)
			assert.Contains(t, body, freeRow("001"))
			assert.Contains(t, body, freeOption("001"))
			assert.Contains(t, body, "200 of 200 free")
		})
	}
}

func TestRegister_FlashIsShownOnce(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/")

	body := v.post("/register", url.Values{"locker_no": {"002"}, "student_id": {"S2"}, "student_name": {"Ono"}})
	require.Contains(t, body, views.MsgRegistered("002", "Ono"))

	assert.NotContains(t, v.get("/"), views.MsgRegistered("002", "Ono"))
}

func TestRegister_OccupiedLockerIsNotOverwritten(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/")

	v.post("/register", url.Values{"locker_no": {"005"}, "student_id": {"S5"}, "student_name": {"First"}})
	body := v.post("/register", url.Values{"locker_no": {"005"}, "student_id": {"S6"}, "student_name": {"Second"}})
	assert.Contains(t, body, views.MsgAlreadyTaken)

	v.login("admin", adminPass)
	assert.Contains(t, v.get("/admin"), rosterRow("005", "S5", "First"))
}

func TestRegister_EscapesInput(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/")
	v.post("/register", url.Values{"locker_no": {"003"}, "student_id": {"S3"}, "student_name": {"<b>Bold</b>"}})

	v.login("admin", adminPass)
	body := v.get("/admin")
	assert.Contains(t, body, "&lt;b&gt;Bold&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Bold</b>")
}

func TestAdminGate(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		pass     string
		want     []string
		dontWant []string
	}{
		{
			name:     "unknown credentials",
			user:     "mallory",
			pass:     "guess",
			want:     []string{views.MsgLoginFailed, `action="/admin/login"`},
			dontWant: []string{"Administrator panel", `action="/admin/logout"`},
		},
		{
			name:     "wrong admin password",
			user:     "admin",
			pass:     "guess",
			want:     []string{views.MsgLoginFailed},
			dontWant: []string{"Administrator panel"},
		},
		{
			name:     "admin",
			user:     "admin",
			pass:     adminPass,
			want:     []string{views.MsgWelcome("admin"), "Administrator panel", `action="/admin/logout"`, `class="roster"`},
			dontWant: []string{`action="/admin/login"`, views.MsgLoginFailed},
		},
		{
			name:     "valid non-admin identity",
			user:     "staff",
			pass:     otherPass,
			want:     []string{views.MsgNotAdmin, "flash-warning", `action="/admin/logout"`},
			dontWant: []string{"Administrator panel", `class="roster"`, `action="/admin/login"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaultEnv(t).newVisitor(t)

			initial := v.get("/admin")
			assert.Contains(t, initial, views.MsgLoginPrompt)
			assert.NotContains(t, initial, "Administrator panel")

			body := v.login(tt.user, tt.pass)
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.dontWant {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/admin")
	require.Contains(t, v.login("admin", adminPass), "Administrator panel")

	body := v.post("/admin/logout", nil)
	assert.Contains(t, body, views.MsgLoginPrompt)
	assert.NotContains(t, body, "Administrator panel")
}

func TestLogin_IsNoopWhenLoggedIn(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/admin")
	v.login("admin", adminPass)

	body := v.login("staff", "wrong")
	assert.Contains(t, body, "Administrator panel")
	assert.NotContains(t, body, views.MsgLoginFailed)
}

func TestLogin_Throttled(t *testing.T) {
	opts := sessions.DefaultOptions()
	opts.LoginEvery = time.Hour
	opts.LoginBurst = 1
	v := newTestEnv(t, opts).newVisitor(t)
	v.get("/admin")

	v.login("admin", "bad")
	body := v.login("admin", adminPass)

	assert.Contains(t, body, views.MsgTooManyAttempts)
	assert.NotContains(t, body, "Administrator panel")
}

func TestAdminOperations_RequireAdmin(t *testing.T) {
	paths := []string{"/admin/register", "/admin/release", "/admin/lockers/001/release"}

	for _, identity := range []string{"", "staff"} {
		v := defaultEnv(t).newVisitor(t)
		v.get("/admin")
		if identity != "" {
			v.login(identity, otherPass)
		}

		for _, p := range paths {
			resp := v.postRaw(p, url.Values{"locker_no": {"001"}, "student_id": {"S"}, "student_name": {"N"}}, true)
			resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, "identity %q path %s", identity, p)
		}
	}
}

func TestRelease_BothEntryPointsBehaveTheSame(t *testing.T) {
	for _, entry := range []string{"dropdown", "row"} {
		t.Run(entry, func(t *testing.T) {
			v := defaultEnv(t).newVisitor(t)
			v.get("/admin")
			v.login("admin", adminPass)
			v.post("/admin/register", url.Values{"locker_no": {"010"}, "student_id": {"S10"}, "student_name": {"Endo"}})

			before := v.get("/admin")
			require.Contains(t, before, rosterRow("010", "S10", "Endo"))
			require.Contains(t, before, freeOption("010"), "occupied locker is a dropdown candidate")

			var body string
			if entry == "dropdown" {
				body = v.post("/admin/release", url.Values{"locker_no": {"010"}})
			} else {
				body = v.post("/admin/lockers/010/release", nil)
			}

			assert.Contains(t, body, views.MsgReleased("010"))
			assert.Contains(t, body, rosterRow("010", views.Placeholder, views.Placeholder))
			assert.Contains(t, body, views.MsgNoOccupied)
			assert.Contains(t, v.get("/"), freeRow("010"))
		})
	}
}

func TestRelease_FreeLockerIsNotOffered(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/admin")
	body := v.login("admin", adminPass)

	assert.Contains(t, body, views.MsgNoOccupied)
	assert.NotContains(t, body, `/release"><input`)

	body = v.post("/admin/lockers/001/release", nil)
	assert.Contains(t, body, views.MsgAlreadyFree)
	assert.Contains(t, body, rosterRow("001", views.Placeholder, views.Placeholder))

	body = v.post("/admin/release", url.Values{"locker_no": {"404"}})
	assert.Contains(t, body, views.MsgUnknownLocker)
}

func TestCSRF(t *testing.T) {
	v := defaultEnv(t).newVisitor(t)
	v.get("/")

	resp := v.postRaw("/register", url.Values{"locker_no": {"001"}, "student_id": {"S"}, "student_name": {"N"}}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = v.postRaw("/register", url.Values{"csrf_token": {strings.Repeat("0", 32)}, "locker_no": {"001"}, "student_id": {"S"}, "student_name": {"N"}}, false)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Contains(t, v.get("/"), freeRow("001"))
}

func TestSessions_AreIsolated(t *testing.T) {
	env := defaultEnv(t)
	alice := env.newVisitor(t)
	bob := env.newVisitor(t)
	alice.get("/")
	bob.get("/")

	alice.post("/register", url.Values{"locker_no": {"001"}, "student_id": {"S1"}, "student_name": {"Alice"}})

	assert.NotContains(t, alice.get("/"), freeRow("001"))
	assert.Contains(t, bob.get("/"), freeRow("001"))
	assert.Equal(t, 2, env.store.Len())
}

func TestSession_CookieReuseAndRejection(t *testing.T) {
	env := defaultEnv(t)
	v := env.newVisitor(t)
	v.get("/")
	v.get("/")
	v.get("/admin")
	assert.Equal(t, 1, env.store.Len(), "one cookie, one session")

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "forged"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, env.store.Len(), "a forged cookie starts a new session")

	var fresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			fresh = c
		}
	}
	require.NotNil(t, fresh)
	assert.True(t, fresh.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, fresh.SameSite)
}

func TestDemoSeed(t *testing.T) {
	opts := sessions.DefaultOptions()
	opts.Seed = lockers.SeedDemo
	v := newTestEnv(t, opts).newVisitor(t)

	body := v.get("/")
	assert.Contains(t, body, "197 of 200 free")
	assert.NotContains(t, body, freeRow("001"))
	assert.Contains(t, body, freeRow("003"))
}

func TestNoFreeLockers(t *testing.T) {
	opts := sessions.DefaultOptions()
	opts.LockerCount = 1
	opts.LoginEvery = 0
	v := newTestEnv(t, opts).newVisitor(t)
	v.get("/")

	body := v.post("/register", url.Values{"locker_no": {"001"}, "student_id": {"S1"}, "student_name": {"Only"}})
	assert.Contains(t, body, views.MsgNoFreeLockers)
	assert.Contains(t, body, views.MsgNoRegisterTargets)
	assert.NotContains(t, body, `name="student_id"`)
}

func TestHealthAndMetrics(t *testing.T) {
	env := defaultEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(b))
	assert.Empty(t, resp.Cookies(), "health checks do not start sessions")

	v := env.newVisitor(t)
	v.get("/")
	v.post("/register", url.Values{"locker_no": {"001"}, "student_id": {""}, "student_name": {""}})

	resp, err = http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(b), "lockers_validation_errors_total 1")
	assert.Contains(t, string(b), "sessions_active 1")
}

func TestUnknownPath_DoesNotStartSession(t *testing.T) {
	env := defaultEnv(t)

	for _, p := range []string{"/nope", "/favicon.ico", "/admin/extra", "/wp-login.php"} {
		for i := 0; i < 10; i++ {
			resp, err := http.Get(env.srv.URL + p)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
			assert.Empty(t, resp.Cookies(), p)
		}
	}

	resp, err := http.Post(env.srv.URL+"/admin/nothing", "application/x-www-form-urlencoded", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Zero(t, env.store.Len())
}

func TestSessionLimit(t *testing.T) {
	opts := sessions.DefaultOptions()
	opts.MaxSessions = 1
	env := newTestEnv(t, opts)

	first := env.newVisitor(t)
	first.get("/")

	resp, err := http.Get(env.srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, 1, env.store.Len())

	assert.Contains(t, first.get("/"), freeRow("001"), "existing sessions keep working")
}

func TestNewHandler_RequiresCookieKey(t *testing.T) {
	store := sessions.NewStore(sessions.DefaultOptions())
	_, err := NewHandler(store, auth.NewAuthenticator(nil, logging.NopLogger{}), metrics.New(store.Len), logging.NopLogger{}, Options{})
	assert.Error(t, err)
}
