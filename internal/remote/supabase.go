package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// DefaultPageSize is the number of rows requested per select page. It
// matches the PostgREST max-rows default.
const DefaultPageSize = 1000

// HTTPError is a non-2xx PostgREST response.
type HTTPError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`

	// Body holds the raw response when it was not PostgREST JSON.
	Body string `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: unexpected %d response: %s", e.StatusCode, e.Body)
	}
	if e.Code == "" {
		return fmt.Sprintf("supabase: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("supabase: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 or 403 from the remote.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
}

// Supabase talks to the PostgREST endpoint of a Supabase project.
type Supabase struct {
	baseURL    string
	key        string
	httpClient *http.Client
	pageSize   int
}

// NewSupabase creates a client for the project at projectURL
// (e.g. https://xyz.supabase.co). key is the anon or service role key.
func NewSupabase(projectURL, key string, client *http.Client) *Supabase {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Supabase{
		baseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		key:        key,
		httpClient: client,
		pageSize:   DefaultPageSize,
	}
}

func (s *Supabase) UpsertPlayer(ctx context.Context, row PlayerRow) error {
	return s.upsert(ctx, TablePlayers, row)
}

func (s *Supabase) UpsertEvent(ctx context.Context, row EventRow) error {
	return s.upsert(ctx, TableEvents, row)
}

func (s *Supabase) UpsertParticipant(ctx context.Context, row ParticipantRow) error {
	return s.upsert(ctx, TableParticipants, row)
}

func (s *Supabase) SelectPlayers(ctx context.Context) ([]PlayerRow, error) {
	return selectAll[PlayerRow](ctx, s, TablePlayers)
}

func (s *Supabase) SelectEvents(ctx context.Context) ([]EventRow, error) {
	return selectAll[EventRow](ctx, s, TableEvents)
}

func (s *Supabase) SelectParticipants(ctx context.Context) ([]ParticipantRow, error) {
	return selectAll[ParticipantRow](ctx, s, TableParticipants)
}

// UpdateSyncMetadata writes the singleton row. It is sent as an upsert so a
// project whose DDL never seeded row 1 still records the sync.
func (s *Supabase) UpdateSyncMetadata(ctx context.Context, meta SyncMetadata) error {
	meta.ID = SyncMetadataID
	return s.upsert(ctx, TableSyncMetadata, meta)
}

func (s *Supabase) SelectSyncMetadata(ctx context.Context) (SyncMetadata, bool, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", "eq."+strconv.Itoa(SyncMetadataID))

	body, _, err := s.do(ctx, http.MethodGet, TableSyncMetadata, query, nil, nil)
	if err != nil {
		return SyncMetadata{}, false, err
	}
	var rows []SyncMetadata
	if err := json.Unmarshal(body, &rows); err != nil {
		return SyncMetadata{}, false, fmt.Errorf("supabase: decode %s: %w", TableSyncMetadata, err)
	}
	if len(rows) == 0 {
		return SyncMetadata{}, false, nil
	}
	return rows[0], true, nil
}

// CountPlayers issues a HEAD request with an exact count and reads the
// total from Content-Range ("0-24/25" or "*/0").
func (s *Supabase) CountPlayers(ctx context.Context) (int64, error) {
	query := url.Values{}
	query.Set("select", "id")

	_, header, err := s.do(ctx, http.MethodHead, TablePlayers, query, nil, map[string]string{
		"Prefer": "count=exact",
	})
	if err != nil {
		return 0, err
	}
	return parseContentRange(header.Get("Content-Range"))
}

// Close is a no-op; the HTTP client holds no per-store resources.
func (s *Supabase) Close() error {
	return nil
}

func (s *Supabase) upsert(ctx context.Context, table string, row any) error {
	_, _, err := s.do(ctx, http.MethodPost, table, nil, row, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	})
	return err
}

// selectAll reads every row of table in id order, one page at a time.
// PostgREST caps a single response at its max-rows setting without
// reporting it, so pages continue until the exact count from Content-Range
// is reached. Without a count, a short or empty page ends the read.
func selectAll[T any](ctx context.Context, s *Supabase, table string) ([]T, error) {
	rows := []T{}
	for {
		query := url.Values{}
		query.Set("select", "*")
		query.Set("order", "id.asc")
		query.Set("limit", strconv.Itoa(s.pageSize))
		query.Set("offset", strconv.Itoa(len(rows)))

		body, header, err := s.do(ctx, http.MethodGet, table, query, nil, map[string]string{
			"Prefer": "count=exact",
		})
		if err != nil {
			return nil, err
		}
		var page []T
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("supabase: decode %s: %w", table, err)
		}
		rows = append(rows, page...)
		if len(page) == 0 {
			return rows, nil
		}

		total, err := parseContentRange(header.Get("Content-Range"))
		if err != nil {
			if len(page) < s.pageSize {
				return rows, nil
			}
			continue
		}
		if int64(len(rows)) >= total {
			return rows, nil
		}
	}
}

// do performs one request against /rest/v1/{table}. On 2xx it returns the
// body and headers; otherwise an *HTTPError.
func (s *Supabase) do(ctx context.Context, method, table string, query url.Values, requestBody any, headers map[string]string) ([]byte, http.Header, error) {
	requestURL := s.baseURL + "/" + table
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, nil, fmt.Errorf("supabase: encode %s row: %w", table, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("supabase: create request: %w", err)
	}
	request.Header.Set("apikey", s.key)
	request.Header.Set("Authorization", "Bearer "+s.key)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		request.Header.Set(name, value)
	}

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("supabase: %s %s failed: %w", method, table, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("supabase: read response: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, response.Header, nil
	}

	httpErr := &HTTPError{StatusCode: response.StatusCode}
	if jsonErr := json.Unmarshal(responseBody, httpErr); jsonErr != nil || httpErr.Message == "" {
		httpErr.Body = strings.TrimSpace(string(responseBody))
	}
	return nil, nil, httpErr
}

func parseContentRange(value string) (int64, error) {
	slash := strings.LastIndexByte(value, '/')
	if slash < 0 || slash == len(value)-1 {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q", value)
	}
	total := value[slash+1:]
	if total == "*" {
		return 0, fmt.Errorf("supabase: Content-Range %q carries no count", value)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q: %w", value, err)
	}
	return n, nil
}
