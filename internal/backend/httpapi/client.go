package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

const (
	defaultTimeout       = 10 * time.Second
	headerIdempotencyKey = "Idempotency-Key"
	headerBatchID        = "X-Bulk-Batch-ID"
	maxErrorBody         = 4 << 10
)

var ErrBaseURLRequired = errors.New("httpapi: base url is required")

// StatusError reports a non-2xx response. It unwraps to the sentinel
// matching the status code.
type StatusError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("httpapi: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("httpapi: status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// Client performs item actions against a REST content API:
// POST {base}/{contentType}/{itemID}/actions/{actionID}.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  interfaces.Logger
}

var _ interfaces.Backend = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, ErrBaseURLRequired
	}
	c := &Client{
		baseURL: trimmed,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type actionPayload struct {
	BatchID   string         `json:"batch_id,omitempty"`
	InputData map[string]any `json:"input_data,omitempty"`
}

// PerformAction implements interfaces.Backend.
func (c *Client) PerformAction(ctx context.Context, req interfaces.ActionRequest) error {
	body, err := json.Marshal(actionPayload{BatchID: req.BatchID, InputData: req.InputData})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/%s/actions/%s",
		c.baseURL,
		url.PathEscape(req.ContentType),
		url.PathEscape(req.ItemID),
		url.PathEscape(req.ActionID),
	)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(headerIdempotencyKey, req.IdempotencyKey)
	}
	if req.BatchID != "" {
		httpReq.Header.Set(headerBatchID, req.BatchID)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("backend.http.transport_error", "item_id", req.ItemID, "error", err)
		return fmt.Errorf("%w: %w", interfaces.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	statusErr := decodeStatusError(resp)
	c.logger.Debug("backend.http.status_error", "item_id", req.ItemID, "status", resp.StatusCode)
	return statusErr
}

// KindForStatus maps an HTTP status code to the sentinel used for
// classification. Unlisted codes return nil, which classifies as unknown.
func KindForStatus(code int) error {
	switch {
	case code == http.StatusNotFound, code == http.StatusGone:
		return interfaces.ErrItemNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return interfaces.ErrItemForbidden
	case code == http.StatusConflict, code == http.StatusPreconditionFailed:
		return interfaces.ErrItemConflict
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return interfaces.ErrTransient
	default:
		return nil
	}
}

func decodeStatusError(resp *http.Response) error {
	type errorPayload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(data))
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.Error != "":
			message = payload.Error
		case payload.Message != "":
			message = payload.Message
		}
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    message,
		kind:       KindForStatus(resp.StatusCode),
	}
}
