// Package remote implements the HTTP client for the progress API.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/relay/internal/core/logging"
	"github.com/colonyops/relay/internal/core/progress"
)

// Client talks to the remote progress store. Every request carries a bearer
// token, a fresh X-Request-Id, and the client-wide timeout, so a hung request
// cannot stall a retry loop indefinitely.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the API at baseURL. The timeout applies per
// request; expiry surfaces as a transport error.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logging.Component("remote"),
	}
}

// recordBody is the wire shape of one progress record.
type recordBody struct {
	ItemKey   string `json:"itemKey"`
	Value     string `json:"value"`
	Note      string `json:"note,omitempty"`
	Attempt   int    `json:"attempt"`
	Timestamp int64  `json:"timestamp"`
}

type batchOperation struct {
	Kind string     `json:"kind"`
	Data recordBody `json:"data"`
}

type batchRequest struct {
	Operations []batchOperation `json:"operations"`
}

type operationResult struct {
	ItemKey string `json:"itemKey"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []operationResult `json:"results"`
}

type loadResponse struct {
	Records []progress.Remote `json:"records"`
}

func toRecordBody(rec progress.Record) recordBody {
	return recordBody{
		ItemKey:   rec.ItemKey,
		Value:     rec.Value,
		Note:      rec.Note,
		Attempt:   rec.Attempt,
		Timestamp: rec.LocalTS,
	}
}

// SaveProgress persists a single record via POST /progress.
func (c *Client) SaveProgress(ctx context.Context, token string, rec progress.Record) error {
	body, err := json.Marshal(toRecordBody(rec))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/progress", token, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// SaveBatch persists a batch via POST /progress/batch. The response enumerates
// per-operation results; any failed operation fails the whole call so the
// caller's retry and outbox handling covers the batch as a unit.
func (c *Client) SaveBatch(ctx context.Context, token string, recs []progress.Record) error {
	req := batchRequest{Operations: make([]batchOperation, 0, len(recs))}
	for _, rec := range recs {
		req.Operations = append(req.Operations, batchOperation{Kind: "save", Data: toRecordBody(rec)})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/progress/batch", token, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if err == io.EOF {
			// An empty body still acknowledges persistence.
			return nil
		}
		return &ParseError{Err: err}
	}

	for _, res := range parsed.Results {
		if !res.OK && res.Error != "" {
			return fmt.Errorf("operation %q rejected: %s", res.ItemKey, res.Error)
		}
	}
	return nil
}

// Load fetches records changed since the given time via GET /progress.
// A nil since requests the full remote set.
func (c *Client) Load(ctx context.Context, token string, since *time.Time) ([]progress.Remote, error) {
	path := "/progress"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var parsed loadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ParseError{Err: err}
	}
	return parsed.Records, nil
}

// Ping checks reachability of the remote store. Any HTTP response counts as
// reachable; only a transport-level failure reports offline.
func (c *Client) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("no base URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/progress", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	drain(resp)
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// drain discards and closes the response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
