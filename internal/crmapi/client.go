// Package crmapi provides the HTTP client for the remote FixFinanz REST
// API. All persistence, authorization and notification dispatch live
// behind this boundary; the client only shapes requests, extracts error
// envelopes and hands typed records to the sync layer.
package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AliAon/FixFixnanz-sub000/internal/auth"
	"github.com/AliAon/FixFixnanz-sub000/internal/config"
	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// Client issues requests to the remote FixFinanz API. Identical in-flight
// GETs are coalesced through a singleflight group keyed by a semantic
// operation key; the group lives and dies with the client instance, so
// nothing leaks across sessions.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	tokens         *auth.TokenSource
	logger         *zap.Logger
	requestTimeout time.Duration
	maxRetries     int
	inflight       singleflight.Group
}

// HealthStatus reports reachability of the remote API.
type HealthStatus struct {
	Status  string        `json:"status"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

// NewClient creates a client for the remote API described by cfg.
func NewClient(cfg *config.APIConfig, tokens *auth.TokenSource, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote API base URL is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote API base URL: %w", err)
	}

	timeout := cfg.RequestTimeoutDuration()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	logger.Info("Remote API client initialized",
		zap.String("base_url", base.String()),
		zap.Duration("request_timeout", timeout),
		zap.Int("max_retries", retries),
	)

	return &Client{
		baseURL:        base,
		httpClient:     &http.Client{},
		tokens:         tokens,
		logger:         logger,
		requestTimeout: timeout,
		maxRetries:     retries,
	}, nil
}

// ListPipelines fetches all pipelines of the given type partition. An
// empty type fetches the default (normal) partition.
func (c *Client) ListPipelines(ctx context.Context, pipelineType domain.PipelineType) ([]domain.Pipeline, error) {
	query := url.Values{}
	if pipelineType != "" {
		query.Set("type", string(pipelineType))
	}

	key := "listPipelines:" + string(pipelineType)
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var pipelines []domain.Pipeline
		if err := c.doJSON(ctx, http.MethodGet, "/pipelines", query, nil, &pipelines); err != nil {
			return nil, err
		}
		return pipelines, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Pipeline), nil
}

// GetPipeline fetches one pipeline with its stages.
func (c *Client) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	key := "getPipeline:" + id
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var pipeline domain.Pipeline
		if err := c.doJSON(ctx, http.MethodGet, "/pipelines/"+url.PathEscape(id), nil, nil, &pipeline); err != nil {
			return nil, err
		}
		return &pipeline, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Pipeline), nil
}

// CreatePipeline creates a pipeline owned by the consultant.
func (c *Client) CreatePipeline(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	var created domain.Pipeline
	if err := c.doJSON(ctx, http.MethodPost, "/pipelines", nil, pipeline, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePipeline updates name/source of a pipeline.
func (c *Client) UpdatePipeline(ctx context.Context, id string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	var updated domain.Pipeline
	if err := c.doJSON(ctx, http.MethodPut, "/pipelines/"+url.PathEscape(id), nil, pipeline, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePipeline deletes a pipeline.
func (c *Client) DeletePipeline(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/pipelines/"+url.PathEscape(id), nil, nil, nil)
}

// ListStages fetches the stages of a pipeline.
func (c *Client) ListStages(ctx context.Context, pipelineID string) ([]domain.Stage, error) {
	query := url.Values{}
	query.Set("pipeline_id", pipelineID)

	key := "listStages:" + pipelineID
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var stages []domain.Stage
		if err := c.doJSON(ctx, http.MethodGet, "/stages", query, nil, &stages); err != nil {
			return nil, err
		}
		return stages, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Stage), nil
}

// CreateStage adds a stage to a pipeline.
func (c *Client) CreateStage(ctx context.Context, req *domain.CreateStageRequest) (*domain.Stage, error) {
	var stage domain.Stage
	if err := c.doJSON(ctx, http.MethodPost, "/stages", nil, req, &stage); err != nil {
		return nil, err
	}
	return &stage, nil
}

// UpdateStage updates a stage.
func (c *Client) UpdateStage(ctx context.Context, id string, req *domain.UpdateStageRequest) (*domain.Stage, error) {
	var stage domain.Stage
	if err := c.doJSON(ctx, http.MethodPut, "/stages/"+url.PathEscape(id), nil, req, &stage); err != nil {
		return nil, err
	}
	return &stage, nil
}

// DeleteStage deletes a stage. The server owns any cascade semantics.
func (c *Client) DeleteStage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/stages/"+url.PathEscape(id), nil, nil, nil)
}

// ListContacts fetches the raw contact records of a consultant, optionally
// scoped to one stage. The records are heterogeneous and are shaped into
// the display view model by the derive package.
func (c *Client) ListContacts(ctx context.Context, consultantID, stageID string) ([]domain.RawContactRecord, error) {
	query := url.Values{}
	if stageID != "" {
		query.Set("stage_id", stageID)
	}

	key := "listContacts:" + consultantID + ":" + stageID
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var records []domain.RawContactRecord
		path := "/users/by-consultant/" + url.PathEscape(consultantID)
		if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &records); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.RawContactRecord), nil
}

// CreateContact creates a single contact in a known stage.
func (c *Client) CreateContact(ctx context.Context, req *domain.CreateContactRequest) (*domain.RawContactRecord, error) {
	var record domain.RawContactRecord
	if err := c.doJSON(ctx, http.MethodPost, "/users", nil, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// TransferToAgencyStage moves customers into a stage of an agency
// pipeline in bulk.
func (c *Client) TransferToAgencyStage(ctx context.Context, req *domain.TransferRequest) (*domain.TransferResult, error) {
	var result domain.TransferResult
	if err := c.doJSON(ctx, http.MethodPost, "/customers/transfer-to-agency-stage", nil, req, &result); err != nil {
		return nil, err
	}
	if result.PipelineID == "" {
		result.PipelineID = req.AgencyPipelineID
	}
	if result.TargetStageID == "" {
		result.TargetStageID = req.TargetStageID
	}
	return &result, nil
}

// ImportContacts uploads a spreadsheet for server-side parsing and bulk
// contact creation. File-type validation happens before this call; the
// client never sends a file the importer has rejected.
func (c *Client) ImportContacts(ctx context.Context, filename, contentType string, data io.Reader, pipelineID, stageID string) (*domain.ImportResult, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build import request: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if err := writer.WriteField("pipeline_id", pipelineID); err != nil {
		return nil, fmt.Errorf("failed to build import request: %w", err)
	}
	if err := writer.WriteField("stage_id", stageID); err != nil {
		return nil, fmt.Errorf("failed to build import request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build import request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/import", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result domain.ImportResult
	if err := c.send(req, &result); err != nil {
		return nil, err
	}
	if result.StageID == "" {
		result.StageID = stageID
	}
	return &result, nil
}

// ListAppointments fetches the consultant's upcoming appointments for the
// schedule panel.
func (c *Client) ListAppointments(ctx context.Context, consultantID string) ([]domain.Appointment, error) {
	key := "listAppointments:" + consultantID
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		var appointments []domain.Appointment
		path := "/appointments/by-consultant/" + url.PathEscape(consultantID)
		if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &appointments); err != nil {
			return nil, err
		}
		return appointments, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Appointment), nil
}

// HealthCheck probes the remote API.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil, nil)
	latency := time.Since(start)

	status := &HealthStatus{Latency: latency}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		c.logger.Warn("Remote API health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
	} else {
		status.Status = "healthy"
	}
	return status
}

// doJSON performs a request with JSON in and out. GETs are retried with
// exponential backoff on transport-level failures; HTTP error statuses
// are never retried, they surface as RemoteError with the envelope
// message.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	// Apply the default timeout when the caller's context has no deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoff := defaultInitialBackoff
	attempts := 1
	if method == http.MethodGet {
		attempts = c.maxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := c.newRequest(ctx, method, path, query, reqBody)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		lastErr = c.send(req, out)
		if lastErr == nil {
			return nil
		}

		var remote *domain.RemoteError
		if errors.As(lastErr, &remote) || ctx.Err() != nil {
			return lastErr
		}

		if attempt < attempts {
			c.logger.Warn("Remote API request failed, retrying",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return lastErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote API call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorFromResponse extracts the user-facing message from an error
// response. The envelope's "message" wins over "error"; if neither is
// present the status text is used.
func (c *Client) errorFromResponse(resp *http.Response) error {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Message
	if message == "" {
		message = envelope.Error
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &domain.RemoteError{Status: resp.StatusCode, Message: message}
}
