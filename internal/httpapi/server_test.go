package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aquariumd/internal/advice"
	"aquariumd/internal/dashboard"
	"aquariumd/pkg/types"
)

// stubService implements Service with canned state.
type stubService struct {
	ready      bool
	params     map[string]float64
	events     []string
	categories []int
}

func newStubService() *stubService {
	return &stubService{ready: true, params: map[string]float64{}}
}

func (s *stubService) Status() types.StatusResponse {
	return types.StatusResponse{State: "ok", Category: types.CategoryHappy}
}

func (s *stubService) Mood() types.MoodResult {
	return types.MoodResult{Category: types.CategoryHappy, Total: 12, Reason: "All parameters in a healthy range"}
}

func (s *stubService) Snapshot() types.Snapshot {
	return types.Snapshot{TakenAtUnix: 1700000000, Params: types.Params{PH: 7.0}}
}

func (s *stubService) UpdateParam(kind string, value float64) error {
	switch kind {
	case "ph", "ammonia", "nitrite", "nitrate":
		s.params[kind] = value
		return nil
	}
	return dashboard.ErrUnknownParam(kind)
}

func (s *stubService) LogEvent(kind string) error {
	if kind != "feed" && kind != "clean" {
		return dashboard.ErrUnknownEvent(kind)
	}
	s.events = append(s.events, kind)
	return nil
}

func (s *stubService) SetCategoryOverride(v int) error {
	if v < 0 || v >= types.NumCategories {
		return dashboard.ErrInvalidCategory(v)
	}
	s.categories = append(s.categories, v)
	return nil
}

func (s *stubService) Ready() bool { return s.ready }

// stubAdvice returns a fixed tip or error.
type stubAdvice struct {
	tip string
	err error
}

func (a stubAdvice) Advise(ctx context.Context, snap types.Snapshot) (string, error) {
	return a.tip, a.err
}

// stubHistory records events and serves fixed counts.
type stubHistory struct {
	events []string
	counts []types.DayCount
}

func (h *stubHistory) RecordEvent(kind string, at time.Time) error {
	h.events = append(h.events, kind)
	return nil
}

func (h *stubHistory) DailyCounts(kind string, days int) ([]types.DayCount, error) {
	return h.counts, nil
}

func (h *stubHistory) ExportCSV(w io.Writer) error {
	_, err := io.WriteString(w, "id,kind,at_unix,at_rfc3339\n")
	return err
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatusEndpoint(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)
	rr := doJSON(t, h, http.MethodGet, "/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	var out types.StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.State != "ok" {
		t.Fatalf("state = %q", out.State)
	}
}

func TestMoodAndSnapshotEndpoints(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)
	for _, path := range []string{"/mood", "/snapshot"} {
		rr := doJSON(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rr.Code)
		}
	}
}

func TestUpdateParam(t *testing.T) {
	svc := newStubService()
	h := NewMux(svc, nil, nil)

	rr := doJSON(t, h, http.MethodPost, "/params", `{"kind":"ph","value":7.4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.params["ph"] != 7.4 {
		t.Fatalf("param not applied: %v", svc.params)
	}

	rr = doJSON(t, h, http.MethodPost, "/params", `{"kind":"salinity","value":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d", rr.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Code != http.StatusBadRequest || e.Error == "" {
		t.Fatalf("error payload = %+v", e)
	}
}

func TestUpdateParamRejectsBadRequests(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)

	// missing content type
	req := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"kind":"ph","value":7}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("no content type status = %d", rr.Code)
	}

	if rr := doJSON(t, h, http.MethodPost, "/params", `{not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON status = %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodPost, "/params", `{"value":7}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing kind status = %d", rr.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)
	big := `{"kind":"ph","value":7,"pad":"` + strings.Repeat("x", int(maxBodyBytes)) + `"}`
	rr := doJSON(t, h, http.MethodPost, "/params", big)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("oversized body status = %d", rr.Code)
	}
}

func TestLogEventRecordsHistory(t *testing.T) {
	svc := newStubService()
	hist := &stubHistory{}
	h := NewMux(svc, nil, hist)

	rr := doJSON(t, h, http.MethodPost, "/events", `{"kind":"feed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(svc.events) != 1 || svc.events[0] != "feed" {
		t.Fatalf("service events = %v", svc.events)
	}
	if len(hist.events) != 1 || hist.events[0] != "feed" {
		t.Fatalf("history events = %v", hist.events)
	}

	rr = doJSON(t, h, http.MethodPost, "/events", `{"kind":"vacuum"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown event status = %d", rr.Code)
	}
	if len(hist.events) != 1 {
		t.Fatal("rejected event must not reach history")
	}
}

func TestCategoryOverride(t *testing.T) {
	svc := newStubService()
	h := NewMux(svc, nil, nil)

	if rr := doJSON(t, h, http.MethodPost, "/category", `{"category":2}`); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(svc.categories) != 1 || svc.categories[0] != 2 {
		t.Fatalf("categories = %v", svc.categories)
	}
	if rr := doJSON(t, h, http.MethodPost, "/category", `{"category":9}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid category status = %d", rr.Code)
	}
}

func TestAdviceEndpoint(t *testing.T) {
	svc := newStubService()

	rr := doJSON(t, NewMux(svc, nil, nil), http.MethodPost, "/advice", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("no backend status = %d", rr.Code)
	}

	rr = doJSON(t, NewMux(svc, stubAdvice{tip: "Feed less."}, nil), http.MethodPost, "/advice", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out types.AdviceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Advice != "Feed less." {
		t.Fatalf("advice = %q", out.Advice)
	}

	rr = doJSON(t, NewMux(svc, stubAdvice{err: advice.ErrQuotaExhausted("cooldown")}, nil), http.MethodPost, "/advice", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("quota status = %d", rr.Code)
	}

	rr = doJSON(t, NewMux(svc, stubAdvice{err: advice.ErrUnavailable("down")}, nil), http.MethodPost, "/advice", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unavailable status = %d", rr.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	hist := &stubHistory{counts: []types.DayCount{{Day: "2026-08-26", Count: 2}}}
	h := NewMux(newStubService(), nil, hist)

	rr := doJSON(t, h, http.MethodGet, "/history/events?kind=feed&days=7", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("2026-08-26")) {
		t.Fatalf("body = %s", rr.Body.String())
	}

	if rr := doJSON(t, h, http.MethodGet, "/history/events?days=0", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("days=0 status = %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/history/events?days=nope", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("days=nope status = %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/history/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("export content type = %q", ct)
	}

	bare := NewMux(newStubService(), nil, nil)
	if rr := doJSON(t, bare, http.MethodGet, "/history/events", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("no history status = %d", rr.Code)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	svc := newStubService()
	h := NewMux(svc, nil, nil)

	if rr := doJSON(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rr.Code)
	}
	svc.ready = false
	if rr := doJSON(t, h, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready = %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)
	doJSON(t, h, http.MethodGet, "/status", "") // populate counters
	rr := doJSON(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("aquariumd_http_requests_total")) {
		t.Fatal("metrics output missing http request counter")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := NewMux(newStubService(), nil, nil)
	rr := doJSON(t, h, http.MethodGet, "/status", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
}
