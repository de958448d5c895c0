package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest is one request seen by the fake PostgREST server.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type fakePostgREST struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakePostgREST(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakePostgREST, *Supabase) {
	t.Helper()
	fake := &fakePostgREST{handler: handler}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fake.mu.Lock()
		fake.requests = append(fake.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		fake.mu.Unlock()
		fake.handler(w, r)
	}))
	t.Cleanup(server.Close)
	return fake, NewSupabase(server.URL+"/", "test-key", server.Client())
}

func (f *fakePostgREST) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func TestSupabase_UpsertPlayer(t *testing.T) {
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err := client.UpsertPlayer(context.Background(), PlayerRow{
		ID: 3, Name: "Alice", Province: "NB", Status: "Winner",
		TotalEvents: 2, TOCQualified: true, CreatedAt: created, UpdatedAt: created,
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rest/v1/players", req.Path)
	assert.Equal(t, "test-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
	assert.Contains(t, req.Header.Get("Prefer"), "resolution=merge-duplicates")
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, true, body["toc_qualified"])
	assert.Equal(t, float64(3), body["id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", body["created_at"])
}

func TestSupabase_UpsertEventSendsExplicitNulls(t *testing.T) {
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.UpsertEvent(context.Background(), EventRow{
		ID: 1, Name: "Invitational 1", EventType: "Invitational", Status: "Pending",
	}))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.last(t).Body), &body))
	assert.Contains(t, body, "winner_id")
	assert.Nil(t, body["winner_id"])
	assert.Contains(t, body, "event_date")
}

func TestSupabase_SelectParticipants(t *testing.T) {
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":1,"event_id":1,"player_id":3,"is_debut":true,"is_veteran":false,"placement":null,"added_at":"2025-03-01T12:00:00+00:00"},
			{"id":2,"event_id":7,"player_id":3,"is_debut":false,"is_veteran":true,"placement":1,"added_at":"2025-03-02T08:30:00.5+00:00"}
		]`)
	})

	rows, err := client.SelectParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsDebut)
	assert.Nil(t, rows[0].Placement)
	require.NotNil(t, rows[1].Placement)
	assert.Equal(t, int64(1), *rows[1].Placement)
	assert.True(t, rows[1].AddedAt.Equal(time.Date(2025, 3, 2, 8, 30, 0, 500_000_000, time.UTC)))

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/event_participants", req.Path)
	assert.Equal(t, "limit=1000&offset=0&order=id.asc&select=%2A", req.Query)
	assert.Equal(t, "count=exact", req.Header.Get("Prefer"))
}

func TestSupabase_SelectPagesPastMaxRows(t *testing.T) {
	// The server holds five players but returns at most two per response,
	// the way a PostgREST max-rows cap truncates silently.
	const total, maxRows = 5, 2
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var page []map[string]any
		for id := offset + 1; id <= total && len(page) < maxRows; id++ {
			page = append(page, map[string]any{
				"id": id, "name": fmt.Sprintf("Player %d", id), "province": "NB", "status": "Prospect",
				"created_at": "2025-03-01T12:00:00+00:00", "updated_at": "2025-03-01T12:00:00+00:00",
			})
		}
		if len(page) == 0 {
			w.Header().Set("Content-Range", fmt.Sprintf("*/%d", total))
		} else {
			w.Header().Set("Content-Range", fmt.Sprintf("%d-%d/%d", offset, offset+len(page)-1, total))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	client.pageSize = 3

	rows, err := client.SelectPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, total)
	for i, row := range rows {
		assert.Equal(t, int64(i+1), row.ID)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.requests, 3)
	for i, offset := range []string{"0", "2", "4"} {
		assert.Contains(t, fake.requests[i].Query, "offset="+offset)
		assert.Contains(t, fake.requests[i].Query, "limit=3")
	}
}

func TestSupabase_SelectWithoutCountStopsOnShortPage(t *testing.T) {
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, `[{"id":1,"name":"Alice","status":"Winner","created_at":"2025-03-01T12:00:00Z","updated_at":"2025-03-01T12:00:00Z"}]`)
	})

	rows, err := client.SelectPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, fake.requests, 1)
}

func TestSupabase_SelectEmptyTable(t *testing.T) {
	_, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	rows, err := client.SelectPlayers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSupabase_CountPlayers(t *testing.T) {
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-24/25")
		w.WriteHeader(http.StatusOK)
	})

	n, err := client.CountPlayers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)

	req := fake.last(t)
	assert.Equal(t, http.MethodHead, req.Method)
	assert.Equal(t, "count=exact", req.Header.Get("Prefer"))
}

func TestSupabase_SyncMetadata(t *testing.T) {
	var stored string
	fake, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			stored = string(body)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if stored == "" {
				io.WriteString(w, `[]`)
				return
			}
			io.WriteString(w, "["+stored+"]")
		}
	})
	ctx := context.Background()

	_, ok, err := client.SelectSyncMetadata(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, client.UpdateSyncMetadata(ctx, SyncMetadata{LastSync: &now}))
	assert.Equal(t, "/rest/v1/sync_metadata", fake.last(t).Path)

	meta, ok, err := client.SelectSyncMetadata(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(SyncMetadataID), meta.ID)
	require.NotNil(t, meta.LastSync)
	assert.True(t, meta.LastSync.Equal(now))
	assert.Equal(t, "id=eq.1&select=%2A", fake.last(t).Query)
}

func TestSupabase_PostgRESTError(t *testing.T) {
	_, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint \"players_name_key\"","details":null,"hint":null}`)
	})

	err := client.UpsertPlayer(context.Background(), PlayerRow{ID: 1, Name: "Alice"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.Equal(t, "23505", httpErr.Code)
	assert.Contains(t, err.Error(), "players_name_key")
	assert.False(t, IsUnauthorized(err))
}

func TestSupabase_Unauthorized(t *testing.T) {
	_, client := newFakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "Invalid API key")
	})

	_, err := client.CountPlayers(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Invalid API key", httpErr.Body)
}

func TestSupabase_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewSupabase(url, "k", nil)
	_, err := client.CountPlayers(context.Background())
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"0-24/25", 25, false},
		{"*/0", 0, false},
		{"0-9/*", 0, true},
		{"", 0, true},
		{"0-9/", 0, true},
		{"0-9/ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseContentRange(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
