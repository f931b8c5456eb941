package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

func TestRequestLogger_WritesAccessEntry(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/businesses", func(c echo.Context) error {
		c.Set(UserKey, &domain.User{Username: "bob"})
		return c.NoContent(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/businesses", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["method"] != "GET" || entry["uri"] != "/businesses" || entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["user"] != "bob" {
		t.Errorf("expected user field, got %v", entry["user"])
	}
}
