package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	srv.Config.Build.Version = "1.2.3"
	srv.MountRoutes()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", body.Status)
	}
	if body.Service != "vitalink-ingest" {
		t.Errorf("expected service 'vitalink-ingest', got %q", body.Service)
	}
	if body.Version != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %q", body.Version)
	}
}
