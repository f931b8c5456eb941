package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/middleware"
	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

var (
	owner = &domain.User{ID: 1, Username: "olivia", Role: domain.RoleOwner}
	buyer = &domain.User{ID: 3, Username: "bruno", Role: domain.RoleBuyer}
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context authenticated as user. params are
// name/value pairs for path parameters.
func newContext(e *echo.Echo, method, target, body string, user *domain.User, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserKey, user)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func assertHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected status %d, got %d", code, he.Code)
	}
	if msg != "" && he.Message != msg {
		t.Fatalf("expected message %q, got %v", msg, he.Message)
	}
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestPathID(t *testing.T) {
	e := newEcho()
	for _, raw := range []string{"abc", "0", "-4", ""} {
		c, _ := newContext(e, http.MethodGet, "/", "", nil, "id", raw)
		if _, err := pathID(c, "id", domain.ErrOrderNotFound); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("id %q: expected ErrOrderNotFound, got %v", raw, err)
		}
	}

	c, _ := newContext(e, http.MethodGet, "/", "", nil, "id", "42")
	id, err := pathID(c, "id", domain.ErrOrderNotFound)
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := newContext(newEcho(), http.MethodGet, "/", "", nil)
	if _, err := currentUser(c); !errors.Is(err, echo.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Liveness(t *testing.T) {
	c, rec := newContext(newEcho(), http.MethodGet, "/health", "", nil)
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealth_ReadinessDegraded(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	h := NewHealthHandler(Dependency{Name: "database", Pinger: ok}, Dependency{Name: "redis", Pinger: down})

	c, rec := newContext(newEcho(), http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"degraded"`) || !strings.Contains(body, "connection refused") {
		t.Fatalf("unexpected body: %s", body)
	}
	if strings.Index(body, "database") > strings.Index(body, "redis") {
		t.Fatalf("dependencies out of order: %s", body)
	}
}

func TestHealth_ReadinessOK(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	c, rec := newContext(newEcho(), http.MethodGet, "/health/ready", "", nil)
	if err := NewHealthHandler(Dependency{Name: "database", Pinger: ok}).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
