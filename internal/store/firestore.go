package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"vitalink/internal/config"
	"vitalink/internal/external"
	"vitalink/internal/types"
)

// firestoreAPIBase is the public Firestore REST API base URL.
// Overridable in tests via config.StoreConfig.BaseURL.
const firestoreAPIBase = "https://firestore.googleapis.com"

// FirestoreClient writes display documents through the Firestore REST
// interface. A PATCH without an update mask has create-or-overwrite
// semantics, which is exactly the blind "latest" write the pipeline needs:
// no read, no merge, last writer wins.
type FirestoreClient struct {
	base    *external.BaseClient
	cfg     config.StoreConfig
	baseURL string
	logger  *slog.Logger
}

// NewFirestoreClient creates a FirestoreClient from the store configuration.
// The httpClient timeout bounds each write.
func NewFirestoreClient(httpClient *http.Client, cfg config.StoreConfig, logger *slog.Logger) *FirestoreClient {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = firestoreAPIBase
	}

	return &FirestoreClient{
		base:    external.NewBaseClient(httpClient, "firestore", "VitaLink/1.0"),
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// NewFirestoreClientWithBase creates a FirestoreClient with a pre-configured
// BaseClient, for tests that share a breaker.
func NewFirestoreClientWithBase(base *external.BaseClient, cfg config.StoreConfig, logger *slog.Logger) *FirestoreClient {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = firestoreAPIBase
	}

	return &FirestoreClient{
		base:    base,
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Configured reports whether the client has the credentials it needs to
// attempt a write. The pipeline calls this after validation and before any
// outbound call, so a misdeployed function fails with a configuration error
// rather than a confusing upstream one.
func (c *FirestoreClient) Configured() error {
	if c.cfg.ProjectID == "" || c.cfg.APIKey.Unmask() == "" {
		return types.NewAppError(
			types.ErrCodeConfigMissingCredentials,
			"document store credentials are not configured",
			nil,
		)
	}
	return nil
}

// writeRequest is the REST body for a document write.
type writeRequest struct {
	Fields FieldMap `json:"fields"`
}

// WriteLatest overwrites the per-user latest document with the given
// DisplayDocument. The document path is
//
//	{collection}/{userId}/{latestPath}
//
// under the configured project and database, authenticated via the API key
// query parameter.
//
// The returned error is always a *types.AppError with code
// persistence_write_failed; the caller decides whether to surface or swallow
// it.
func (c *FirestoreClient) WriteLatest(ctx context.Context, userID string, doc types.DisplayDocument) error {
	if err := c.Configured(); err != nil {
		return err
	}

	body, err := json.Marshal(writeRequest{Fields: LatestFields(doc)})
	if err != nil {
		return types.NewAppError(
			types.ErrCodePersistenceFailed,
			"failed to serialize display document",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.documentURL(userID), bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(
			types.ErrCodePersistenceFailed,
			"failed to create document write request",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return types.NewAppError(
			types.ErrCodePersistenceFailed,
			"document store write failed",
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.NewAppError(
			types.ErrCodePersistenceFailed,
			"document store rejected the write",
			fmt.Errorf("firestore returned %d: %s", resp.StatusCode, detail),
		)
	}

	c.logger.InfoContext(ctx, "latest document overwritten",
		"user_id", userID,
		"path", c.documentPath(userID),
	)

	return nil
}

// documentPath returns the document path relative to the database root.
func (c *FirestoreClient) documentPath(userID string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.Collection, url.PathEscape(userID), c.cfg.LatestPath)
}

// documentURL builds the full REST URL for the per-user latest document. The
// API key rides as a query parameter, so it must never appear in logs; only
// documentPath is logged.
func (c *FirestoreClient) documentURL(userID string) string {
	return fmt.Sprintf("%s/v1/projects/%s/databases/%s/documents/%s?key=%s",
		c.baseURL,
		c.cfg.ProjectID,
		url.PathEscape(c.cfg.DatabaseID),
		c.documentPath(userID),
		url.QueryEscape(c.cfg.APIKey.Unmask()),
	)
}
