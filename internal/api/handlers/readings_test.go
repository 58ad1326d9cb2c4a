package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"vitalink/internal/core"
	"vitalink/internal/readings"
	"vitalink/internal/types"
)

// --- Mock Service ---

type mockReadingsService struct {
	result  *readings.IngestResult
	err     error
	calls   int
	lastReq readings.IngestRequest
}

func (m *mockReadingsService) Ingest(_ context.Context, req readings.IngestRequest) (*readings.IngestResult, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Helpers ---

func newTestReadingsHandler(svc ReadingsService) *ReadingsHandler {
	logger := slog.Default()
	validator := core.NewValidator(logger)
	return NewReadingsHandler(svc, validator, logger)
}

func makeReadingsRouter(h *ReadingsHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

func postReading(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/readings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- HandleIngest Tests ---

func TestHandleIngest_Success(t *testing.T) {
	svc := &mockReadingsService{result: &readings.IngestResult{Prediction: "stressed"}}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hr":88,"hrv":32.5,"bt":37.1,"userId":"u1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp core.IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Prediction != "stressed" {
		t.Errorf("expected prediction 'stressed', got '%s'", resp.Prediction)
	}

	if svc.calls != 1 {
		t.Fatalf("expected 1 service call, got %d", svc.calls)
	}
	if svc.lastReq.HR == nil || *svc.lastReq.HR != 88 {
		t.Errorf("expected hr=88 to reach the service, got %v", svc.lastReq.HR)
	}
	if svc.lastReq.UserID != "u1" {
		t.Errorf("expected userId 'u1', got '%s'", svc.lastReq.UserID)
	}
}

func TestHandleIngest_MissingHR(t *testing.T) {
	svc := &mockReadingsService{}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hrv":32.5,"bt":37.1,"userId":"u1"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.calls)
	}

	var resp core.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp.Error, "hr") {
		t.Errorf("expected error to name the missing field, got '%s'", resp.Error)
	}
}

func TestHandleIngest_MissingUserID(t *testing.T) {
	svc := &mockReadingsService{}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hr":72,"hrv":40,"bt":36.5}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.calls)
	}
}

func TestHandleIngest_MalformedJSON(t *testing.T) {
	svc := &mockReadingsService{}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hr":72,`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.calls)
	}
}

func TestHandleIngest_UnknownFieldsTolerated(t *testing.T) {
	svc := &mockReadingsService{result: &readings.IngestResult{Prediction: "calm"}}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hr":72,"hrv":40,"bt":36.5,"userId":"u1","firmware":"2.4.1"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 with extra fields present, got %d", rec.Code)
	}
}

func TestHandleIngest_ServiceError(t *testing.T) {
	svc := &mockReadingsService{
		err: types.NewAppError(types.ErrCodeUpstreamCallFailed, "stress prediction request failed", nil),
	}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	rec := postReading(router, `{"hr":72,"hrv":40,"bt":36.5,"userId":"u1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}

	var resp core.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "stress prediction request failed" {
		t.Errorf("unexpected error message '%s'", resp.Error)
	}
}

func TestHandleIngest_MethodNotAllowed(t *testing.T) {
	svc := &mockReadingsService{}
	router := makeReadingsRouter(newTestReadingsHandler(svc))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/v1/readings", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", method, rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
			t.Errorf("%s: expected Allow header 'POST', got '%s'", method, allow)
		}
	}

	if svc.calls != 0 {
		t.Errorf("expected no service calls, got %d", svc.calls)
	}
}
