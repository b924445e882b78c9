package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glowing-telegram/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type fakeStateLoader struct {
	doc *domain.StateDocument
}

func (f *fakeStateLoader) Load(ctx context.Context) *domain.StateDocument {
	if f.doc == nil {
		return domain.NewStateDocument()
	}
	return f.doc
}

type fakeEventLog struct {
	events []domain.Event
}

func (f *fakeEventLog) Recent() []domain.Event {
	return f.events
}

type fakeReportBuilder struct {
	rows []domain.ReportRow
}

func (f *fakeReportBuilder) BuildReport(ctx context.Context) []domain.ReportRow {
	return f.rows
}

func newTestRouter(h *Handler, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r, apiKey)
	return r
}

func newTestHandler(store *fakeStateLoader, events *fakeEventLog, reports *fakeReportBuilder) *Handler {
	return New(trace.NewNoopTracerProvider().Tracer("test"), store, events, reports)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newTestHandler(&fakeStateLoader{}, &fakeEventLog{}, &fakeReportBuilder{}), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestGetState(t *testing.T) {
	doc := domain.NewStateDocument()
	doc.Coin("BTC").SetTrend(domain.TimeframeD1, domain.TrendUp)
	doc.LastDailyReportDate = "2025-05-10"

	r := newTestRouter(newTestHandler(&fakeStateLoader{doc: doc}, &fakeEventLog{}, &fakeReportBuilder{}), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/state", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var decoded domain.StateDocument
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if decoded.LastDailyReportDate != "2025-05-10" {
		t.Fatalf("unexpected document: %+v", decoded)
	}
	if decoded.Coins["BTC"].TrendFor(domain.TimeframeD1) != domain.TrendUp {
		t.Fatalf("expected BTC daily trend, got %+v", decoded.Coins["BTC"])
	}
}

func TestGetRecentEvents(t *testing.T) {
	events := &fakeEventLog{events: []domain.Event{
		{Kind: domain.EventHeartbeat, At: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)},
		{Kind: domain.EventBuySignal, Symbol: "BTC"},
	}}
	r := newTestRouter(newTestHandler(&fakeStateLoader{}, events, &fakeReportBuilder{}), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/events/recent", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "\"count\":2") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetReport(t *testing.T) {
	reports := &fakeReportBuilder{rows: []domain.ReportRow{
		{Symbol: "BTC", ChangePct: 1.2, Trend: domain.TrendUp, HasData: true},
	}}
	r := newTestRouter(newTestHandler(&fakeStateLoader{}, &fakeEventLog{}, reports), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/report", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BTC") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetReportUnavailable(t *testing.T) {
	r := newTestRouter(newTestHandler(&fakeStateLoader{}, &fakeEventLog{}, &fakeReportBuilder{}), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/report", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	r := newTestRouter(newTestHandler(&fakeStateLoader{}, &fakeEventLog{}, &fakeReportBuilder{}), "secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/state", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/state", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/state", nil)
	req.Header.Set("X-API-Key", "secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid key, got %d", w.Code)
	}

	// Health stays open.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", w.Code)
	}
}
