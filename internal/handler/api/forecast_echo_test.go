package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	internalrepo "LoadPulse/internal/repository"
	"LoadPulse/internal/usecase"
	"LoadPulse/pkg/cache"
	applogger "LoadPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string)       {}
func (nopMetrics) RecordTrainingRun(string)      {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) SetCachedModels(int)           {}

func newTestHandler(t *testing.T) (*echo.Echo, *ForecastEchoHandler) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store, err := internalrepo.NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	engine, err := usecase.NewForecastEngine(usecase.Config{SequenceLength: 28},
		store, cache.NewMemoryCache(), nil, l, nopMetrics{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	e := echo.New()
	h := NewForecastEchoHandler(l, engine)
	h.RegisterRoutes(e)
	return e, h
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestForecastValidatesRequest(t *testing.T) {
	e, _ := newTestHandler(t)

	rec := doJSON(e, http.MethodPost, "/api/forecast", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "400") || !strings.Contains(rec.Body.String(), "required") {
		t.Fatalf("expected validation error payload, got %s", rec.Body.String())
	}
}

func TestForecastDegradesWithoutHistory(t *testing.T) {
	e, _ := newTestHandler(t)

	rec := doJSON(e, http.MethodPost, "/api/forecast", `{"user_id":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, degradations must stay 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"available":false`) || !strings.Contains(body, "insufficient_history") {
		t.Fatalf("expected unavailable payload, got %s", body)
	}
}

func TestModelStatusUntrained(t *testing.T) {
	e, _ := newTestHandler(t)

	rec := doJSON(e, http.MethodGet, "/api/model/status?user_id=u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"trained":false`) {
		t.Fatalf("expected untrained status, got %s", body)
	}
}

func TestDeleteModelMissing(t *testing.T) {
	e, _ := newTestHandler(t)

	rec := doJSON(e, http.MethodDelete, "/api/model?user_id=u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
