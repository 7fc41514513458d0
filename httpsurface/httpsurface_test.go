package httpsurface

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/paginate"
)

// fakeGateway records outbound calls from the bridge.
type fakeGateway struct {
	mu      sync.Mutex
	renders []paginate.ViewModel
	updates map[string]paginate.ViewModel
	modals  []interact.ModalSpec
	replies []replyRequest
	handle  string
}

func newFakeGateway(handle string) *fakeGateway {
	return &fakeGateway{updates: make(map[string]paginate.ViewModel), handle: handle}
}

func (g *fakeGateway) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /render", func(w http.ResponseWriter, r *http.Request) {
		var vm paginate.ViewModel
		require.NoError(t, json.NewDecoder(r.Body).Decode(&vm))
		g.mu.Lock()
		g.renders = append(g.renders, vm)
		g.mu.Unlock()
		json.NewEncoder(w).Encode(renderResponse{Handle: g.handle})
	})
	mux.HandleFunc("POST /surfaces/{handle}", func(w http.ResponseWriter, r *http.Request) {
		var vm paginate.ViewModel
		require.NoError(t, json.NewDecoder(r.Body).Decode(&vm))
		g.mu.Lock()
		g.updates[r.PathValue("handle")] = vm
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /surfaces/{handle}/replies", func(w http.ResponseWriter, r *http.Request) {
		var rr replyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rr))
		g.mu.Lock()
		g.replies = append(g.replies, rr)
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /modals", func(w http.ResponseWriter, r *http.Request) {
		var spec interact.ModalSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		g.mu.Lock()
		g.modals = append(g.modals, spec)
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postEvent(t *testing.T, routes http.Handler, handle string, ev inboundEvent) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/events/"+handle, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	return rec
}

func TestBridge_RenderReturnsGatewayHandle(t *testing.T) {
	gw := newFakeGateway("surface-1")
	b := New(gw.server(t).URL)

	h, err := b.Render(context.Background(), paginate.ViewModel{Summary: "hello"})
	require.NoError(t, err)
	assert.Equal(t, interact.Handle("surface-1"), h)
	assert.Len(t, gw.renders, 1)
	assert.Equal(t, "hello", gw.renders[0].Summary)
}

func TestBridge_UpdateKeepsHandle(t *testing.T) {
	gw := newFakeGateway("surface-1")
	b := New(gw.server(t).URL)

	h, err := b.Update(context.Background(), "surface-1", paginate.ViewModel{Summary: "page 2"})
	require.NoError(t, err)
	assert.Equal(t, interact.Handle("surface-1"), h)
	assert.Equal(t, "page 2", gw.updates["surface-1"].Summary)
}

func TestBridge_EventDeliveredToCollector(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	c, err := b.AttachCollector("s", interact.EventButton, time.Minute)
	require.NoError(t, err)

	rec := postEvent(t, b.Routes(), "s", inboundEvent{
		Kind:     "button",
		UserID:   "u1",
		CustomID: "queue_next:abc",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case ev := <-c.Events():
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "queue_next:abc", ev.CustomID)
		assert.Equal(t, interact.EventButton, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBridge_EventWithoutCollectorIsGone(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	rec := postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestBridge_StoppedCollectorRejectsEvents(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	c, err := b.AttachCollector("s", interact.EventButton, time.Minute)
	require.NoError(t, err)
	c.Stop()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done did not close after Stop")
	}

	rec := postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestBridge_AttachReplacesPreviousCollector(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	first, err := b.AttachCollector("s", interact.EventButton, time.Minute)
	require.NoError(t, err)
	second, err := b.AttachCollector("s", interact.EventButton, time.Minute)
	require.NoError(t, err)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("replaced collector was not stopped")
	}

	rec := postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-second.Events():
	case <-time.After(time.Second):
		t.Fatal("event did not reach the replacement collector")
	}
}

func TestBridge_RepeatedReplacementKeepsRouting(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	// Each replaced collector's stop must deregister only itself, never
	// its successor.
	var last interact.Collector
	for i := 0; i < 3; i++ {
		c, err := b.AttachCollector("s", interact.EventButton, time.Minute)
		require.NoError(t, err)
		last = c
	}

	rec := postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-last.Events():
	case <-time.After(time.Second):
		t.Fatal("event did not reach the latest collector")
	}
}

func TestBridge_CollectorTimesOut(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	c, err := b.AttachCollector("s", interact.EventButton, 20*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("collector did not time out")
	}
}

func TestBridge_KindFilterDropsMismatched(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	c, err := b.AttachCollector("s", interact.EventModal, time.Minute)
	require.NoError(t, err)

	rec := postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-c.Events():
		t.Fatal("button event should not reach a modal collector")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBridge_ReplyPostsBackToGateway(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	c, err := b.AttachCollector("s", interact.EventAny, time.Minute)
	require.NoError(t, err)

	postEvent(t, b.Routes(), "s", inboundEvent{Kind: "button", UserID: "u1"})
	ev := <-c.Events()
	require.NotNil(t, ev.Reply)
	require.NoError(t, ev.Reply(context.Background(), "done"))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.Len(t, gw.replies, 1)
	assert.Equal(t, "u1", gw.replies[0].UserID)
	assert.Equal(t, "done", gw.replies[0].Message)
}

func TestBridge_ShowModal(t *testing.T) {
	gw := newFakeGateway("s")
	b := New(gw.server(t).URL)

	err := b.ShowModal(context.Background(), interact.ModalSpec{
		Title:    "Write a community note",
		CustomID: "note_submit:abc",
	})
	require.NoError(t, err)
	require.Len(t, gw.modals, 1)
	assert.Equal(t, "note_submit:abc", gw.modals[0].CustomID)
}
