package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront-client/internal/remote"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

type fixedRole struct{ role enums.Role }

func (f *fixedRole) CurrentRole() enums.Role { return f.role }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireRoleReadsLiveSession(t *testing.T) {
	src := &fixedRole{role: enums.RoleGuest}
	h := Session(src, logger.Nop())(RequireRole(enums.RoleAdmin, logger.Nop())(okHandler()))

	cases := []struct {
		role enums.Role
		want int
	}{
		{enums.RoleGuest, http.StatusUnauthorized},
		{enums.RoleCustomer, http.StatusForbidden},
		{enums.RoleAdmin, http.StatusNoContent},
		{enums.RoleGuest, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		src.role = tc.role
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))
		if w.Code != tc.want {
			t.Fatalf("role %s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	var seen string
	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(remote.HeaderRequestID, "abc")
	h.ServeHTTP(w, req)
	if seen != "abc" || w.Header().Get(remote.HeaderRequestID) != "abc" {
		t.Fatalf("expected echoed id, got ctx=%q header=%q", seen, w.Header().Get(remote.HeaderRequestID))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc" {
		t.Fatalf("expected generated id, got %q", seen)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(remote.HeaderRequestID, "bad id\twith spaces")
	h.ServeHTTP(w, req)
	if seen == "bad id\twith spaces" || w.Header().Get(remote.HeaderRequestID) != seen {
		t.Fatalf("expected malformed id to be replaced, got %q", seen)
	}
}

func TestRequestIDReachesRemoteCalls(t *testing.T) {
	var forwarded string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Get(remote.HeaderRequestID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer api.Close()
	client, err := remote.NewClient(api.URL, noTokens{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := client.ListProducts(r.Context()); err != nil {
			t.Errorf("list products: %v", err)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(remote.HeaderRequestID, "trace-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if forwarded != "trace-42" {
		t.Fatalf("expected request id forwarded to the API, got %q", forwarded)
	}
}

type noTokens struct{}

func (noTokens) Token(enums.Role) (string, bool) { return "", false }

func TestRecovererReturns500(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRecovererLetsAbortThrough(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLoggingRecordsStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	Logging(nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.status != http.StatusNoContent {
		t.Fatalf("expected 204 recorded, got %d", rec.status)
	}
}
