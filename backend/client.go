// Package backend is the HTTP client for the notes backend, which owns
// note storage, rating aggregation, and scoring. Every operation returns
// either a decoded payload or an *APIError carrying the backend's status
// code; transport details beyond timeouts are not this package's concern.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// APIError is a typed failure from the backend. Status mirrors the HTTP
// status code; Code and Message come from the backend's error body and
// must never be shown to end users directly.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the notes backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitNote creates a new note for a request.
func (c *Client) SubmitNote(ctx context.Context, req SubmitNoteRequest) (*Note, error) {
	var note Note
	if err := c.do(ctx, http.MethodPost, "/v1/notes", req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// RateNote records a helpful/not-helpful rating and returns the updated note.
func (c *Client) RateNote(ctx context.Context, noteID string, req RateNoteRequest) (*Note, error) {
	var note Note
	path := "/v1/notes/" + url.PathEscape(noteID) + "/ratings"
	if err := c.do(ctx, http.MethodPost, path, req, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListNotes returns notes matching the filter.
func (c *Client) ListNotes(ctx context.Context, params ListNotesParams) ([]Note, error) {
	q := url.Values{}
	if params.GuildID != "" {
		q.Set("guild_id", params.GuildID)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	path := "/v1/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var notes []Note
	if err := c.do(ctx, http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListRequests returns pending note requests for a guild.
func (c *Client) ListRequests(ctx context.Context, guildID string) ([]NoteRequest, error) {
	path := "/v1/requests?guild_id=" + url.QueryEscape(guildID)
	var reqs []NoteRequest
	if err := c.do(ctx, http.MethodGet, path, nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ForcePublish publishes a note ahead of consensus. Admin-only; the
// backend enforces the permission, the interaction layer pre-checks it.
func (c *Client) ForcePublish(ctx context.Context, noteID, actorID string) (*Note, error) {
	var note Note
	path := "/v1/notes/" + url.PathEscape(noteID) + "/publish"
	body := map[string]string{"actor_id": actorID}
	if err := c.do(ctx, http.MethodPost, path, body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// GenerateAINote asks the backend to draft a note for a request.
func (c *Client) GenerateAINote(ctx context.Context, requestID, actorID string) (*Note, error) {
	var note Note
	path := "/v1/requests/" + url.PathEscape(requestID) + "/ai-note"
	body := map[string]string{"actor_id": actorID}
	if err := c.do(ctx, http.MethodPost, path, body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// GuildConfig fetches the configuration snapshot for a guild.
func (c *Client) GuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	var cfg GuildConfig
	path := "/v1/guilds/" + url.PathEscape(guildID) + "/config"
	if err := c.do(ctx, http.MethodGet, path, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
