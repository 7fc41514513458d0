package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubmitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/notes", r.URL.Path)

		var req SubmitNoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "req-1", req.RequestID)

		json.NewEncoder(w).Encode(Note{ID: "note-1", RequestID: req.RequestID, Content: req.Content})
	}))
	defer srv.Close()

	c := New(srv.URL)
	note, err := c.SubmitNote(context.Background(), SubmitNoteRequest{
		RequestID: "req-1", GuildID: "g", AuthorID: "u", Content: "context", Classification: "misleading",
	})
	require.NoError(t, err)
	assert.Equal(t, "note-1", note.ID)
}

func TestClient_ListRequests_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "guild-1", r.URL.Query().Get("guild_id"))
		json.NewEncoder(w).Encode([]NoteRequest{{ID: "req-1"}, {ID: "req-2"}})
	}))
	defer srv.Close()

	reqs, err := New(srv.URL).ListRequests(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestClient_APIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"code": "already_rated", "message": "user already rated this note"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).RateNote(context.Background(), "note-1", RateNoteRequest{RaterID: "u", Helpful: true})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "already_rated", apiErr.Code)
}

func TestClient_APIErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GuildConfig(context.Background(), "g")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).ListNotes(ctx, ListNotesParams{GuildID: "g"})
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not APIErrors")
}
