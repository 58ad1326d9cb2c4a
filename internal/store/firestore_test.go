package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalink/internal/config"
	"vitalink/internal/types"
)

func testStoreConfig(baseURL string) config.StoreConfig {
	return config.StoreConfig{
		ProjectID:  "vitalink-test",
		APIKey:     "test-key",
		DatabaseID: "(default)",
		Collection: "user_display",
		LatestPath: "readings/latest",
		BaseURL:    baseURL,
	}
}

func testDoc() types.DisplayDocument {
	return types.DisplayDocument{
		StressLevel:   "calm",
		HeartRate:     72,
		Timestamp:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Probabilities: map[string]float64{"calm": 0.9, "stressed": 0.1},
	}
}

func TestWriteLatestRequestShape(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotKey    string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"projects/vitalink-test/..."}`))
	}))
	defer srv.Close()

	client := NewFirestoreClient(srv.Client(), testStoreConfig(srv.URL), nil)
	err := client.WriteLatest(context.Background(), "u1", testDoc())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v1/projects/vitalink-test/databases/(default)/documents/user_display/u1/readings/latest", gotPath)
	assert.Equal(t, "test-key", gotKey)

	fields := gotBody["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"stringValue": "calm"}, fields["stress_level"])
	assert.Equal(t, map[string]any{"doubleValue": 72.0}, fields["hr"])
	assert.Contains(t, fields, "timestamp")
	assert.Contains(t, fields, "probabilities")
}

func TestWriteLatestSingleSegmentVariant(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testStoreConfig(srv.URL)
	cfg.LatestPath = "latest"

	client := NewFirestoreClient(srv.Client(), cfg, nil)
	require.NoError(t, client.WriteLatest(context.Background(), "u1", testDoc()))

	assert.Equal(t, "/v1/projects/vitalink-test/databases/(default)/documents/user_display/u1/latest", gotPath)
}

func TestWriteLatestOverwriteIsRepeatable(t *testing.T) {
	var writes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writes++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewFirestoreClient(srv.Client(), testStoreConfig(srv.URL), nil)

	// Two identical writes: both must land, neither may error.
	require.NoError(t, client.WriteLatest(context.Background(), "u1", testDoc()))
	require.NoError(t, client.WriteLatest(context.Background(), "u1", testDoc()))
	assert.Equal(t, 2, writes)
}

func TestWriteLatestRejectedWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"permission denied"}}`))
	}))
	defer srv.Close()

	client := NewFirestoreClient(srv.Client(), testStoreConfig(srv.URL), nil)
	err := client.WriteLatest(context.Background(), "u1", testDoc())

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodePersistenceFailed, appErr.Code)
}

func TestWriteLatestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewFirestoreClient(&http.Client{Timeout: time.Second}, testStoreConfig(srv.URL), nil)
	err := client.WriteLatest(context.Background(), "u1", testDoc())

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodePersistenceFailed, appErr.Code)
}

func TestConfiguredMissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.StoreConfig)
	}{
		{"missing api key", func(c *config.StoreConfig) { c.APIKey = "" }},
		{"missing project id", func(c *config.StoreConfig) { c.ProjectID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStoreConfig("http://unused.example.com")
			tt.mutate(&cfg)

			client := NewFirestoreClient(http.DefaultClient, cfg, nil)

			var appErr *types.AppError
			require.True(t, errors.As(client.Configured(), &appErr))
			assert.Equal(t, types.ErrCodeConfigMissingCredentials, appErr.Code)

			// The guard also blocks writes themselves.
			err := client.WriteLatest(context.Background(), "u1", testDoc())
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeConfigMissingCredentials, appErr.Code)
		})
	}
}
