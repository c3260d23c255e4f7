package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
)

const testSecret = "0123456789abcdef0123456789abcdef-authapi"

type fixture struct {
	handler  *Handler
	mux      *http.ServeMux
	issuer   *session.Issuer
	now      time.Time
	outcomes []string
}

func newFixture(t *testing.T, validator CredentialValidator, cfg Config) *fixture {
	t.Helper()

	scfg := session.DefaultConfig()
	scfg.Secret = []byte(testSecret)
	iss, err := session.NewIssuer(scfg)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	f := &fixture{issuer: iss, now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = NewHandler(log, validator, iss, session.NewCookies(scfg), cfg,
		WithClock(func() time.Time { return f.now }),
		WithLoginHook(func(o string) { f.outcomes = append(f.outcomes, o) }),
	)
	f.mux = http.NewServeMux()
	f.handler.Register(f.mux)
	return f
}

func memoryValidator(t *testing.T) CredentialValidator {
	t.Helper()
	t.Setenv("SCRIBE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("SCRIBE_ARGON2_ITERATIONS", "1")
	t.Setenv("SCRIBE_ARGON2_PARALLELISM", "1")

	st := identity.NewMemoryStore()
	_, err := st.CreateUser(context.Background(), identity.CreateUserInput{
		Username: "Alice",
		Password: "correct-horse-battery",
		Role:     identity.RoleModerator,
		Now:      time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return identity.NewValidator(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (f *fixture) login(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/userlogin", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "access_token_cookie" {
			return c
		}
	}
	return nil
}

func TestLogin_SuccessYieldsVerifiableToken(t *testing.T) {
	f := newFixture(t, memoryValidator(t), LoadConfigFromEnv())

	rec := f.login(`{"identity":"alice","secret":"correct-horse-battery"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var body loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "User Logged-in Successfully." || body.Role != "moderator" {
		t.Fatalf("unexpected body: %+v", body)
	}

	ck := sessionCookie(rec)
	if ck == nil {
		t.Fatalf("expected session cookie")
	}
	if !ck.HttpOnly || ck.Path != "/" {
		t.Fatalf("cookie attributes: httponly=%v path=%q", ck.HttpOnly, ck.Path)
	}

	claims, err := f.issuer.Verify(ck.Value, f.now)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != "Alice" || claims.Role != identity.RoleModerator {
		t.Fatalf("claims = %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(f.now); got != time.Hour {
		t.Fatalf("lifetime = %v, want 1h", got)
	}
	if len(f.outcomes) != 1 || f.outcomes[0] != LoginSuccess {
		t.Fatalf("outcomes = %v", f.outcomes)
	}
}

func TestLogin_FailureSetsNoCookie(t *testing.T) {
	f := newFixture(t, memoryValidator(t), LoadConfigFromEnv())

	for _, body := range []string{
		`{"identity":"alice","secret":"wrong-password"}`,
		`{"identity":"nobody","secret":"correct-horse-battery"}`,
	} {
		rec := f.login(body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}
		if ck := sessionCookie(rec); ck != nil {
			t.Fatalf("%s: failed login set a cookie", body)
		}
		if strings.Contains(rec.Body.String(), "mismatch") || strings.Contains(rec.Body.String(), "unknown") {
			t.Fatalf("response leaks cause: %s", rec.Body.String())
		}
	}
}

func TestLogin_BadRequest(t *testing.T) {
	f := newFixture(t, memoryValidator(t), LoadConfigFromEnv())

	bodies := []string{
		``, `{}`, `[]`,
		`{"identity":"alice"}`,
		`{"identity":"   ","secret":"correct-horse-battery"}`,
		`{"identity":"alice","secret":"x","extra":1}`,
		`{"identity":"` + strings.Repeat("a", maxIdentityRunes+1) + `","secret":"x"}`,
		`{"identity":"alice","secret":"` + strings.Repeat("s", maxSecretBytes+1) + `"}`,
	}
	for _, body := range bodies {
		rec := f.login(body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: status = %d", body, rec.Code)
		}
		if sessionCookie(rec) != nil {
			t.Fatalf("%q: cookie set on bad request", body)
		}
	}
}

type stubValidator struct {
	p   identity.Principal
	err error
}

func (s stubValidator) Validate(context.Context, string, string) (identity.Principal, error) {
	return s.p, s.err
}

func TestLogin_StorageErrorIsInternal(t *testing.T) {
	storeErr := identity.OpError{Op: "identity.LookupCredentials", Kind: identity.ErrStorage, Err: errors.New("dial tcp: refused")}
	f := newFixture(t, stubValidator{err: storeErr}, LoadConfigFromEnv())

	rec := f.login(`{"identity":"alice","secret":"whatever"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "refused") {
		t.Fatalf("response leaks cause: %s", rec.Body.String())
	}
}

func TestLogin_ThrottlesRepeatedFailuresByIP(t *testing.T) {
	cfg := LoadConfigFromEnv()
	cfg.LoginIPMax = 2
	cfg.LoginUserMax = 100
	f := newFixture(t, stubValidator{err: identity.OpError{Op: "identity.Validate", Kind: identity.ErrAuth}}, cfg)

	for i := 0; i < 2; i++ {
		if rec := f.login(`{"identity":"u` + string(rune('a'+i)) + `","secret":"x"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
	}

	rec := f.login(`{"identity":"other","secret":"x"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	f.now = f.now.Add(cfg.LoginIPWindow + time.Second)
	if rec := f.login(`{"identity":"other","secret":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after window: status = %d, want 401", rec.Code)
	}
}

func TestLogout_ExpiresCookie(t *testing.T) {
	f := newFixture(t, stubValidator{p: identity.Principal{Username: "bob", Role: identity.RoleViewer}}, LoadConfigFromEnv())

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/userlogout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ck := sessionCookie(rec)
	if ck == nil || ck.MaxAge >= 0 || ck.Value != "" {
		t.Fatalf("expected expired cookie, got %+v", ck)
	}
}

func TestFailureWindow(t *testing.T) {
	fw := newFailureWindow(2, time.Minute)
	now := time.Unix(0, 0)

	fw.record("k", now)
	if blocked, _ := fw.blocked("k", now); blocked {
		t.Fatalf("blocked after one failure")
	}
	fw.record("k", now.Add(10*time.Second))
	blocked, retry := fw.blocked("k", now.Add(20*time.Second))
	if !blocked || retry != 40*time.Second {
		t.Fatalf("blocked=%v retry=%v", blocked, retry)
	}
	fw.reset("k")
	if blocked, _ := fw.blocked("k", now.Add(20*time.Second)); blocked {
		t.Fatalf("reset did not clear")
	}
}
