package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaines/notewarden/token"
)

func newTestStore(t *testing.T) (*MemoryStore, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	t.Cleanup(s.Close)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestKey_Namespacing(t *testing.T) {
	ref := token.Reference("abcd1234abcd1234")
	assert.Equal(t, "queue_state:abcd1234abcd1234", Key(KindQueue, ref))
	assert.Equal(t, "fp_state:abcd1234abcd1234", Key(KindConfirm, ref))

	// The same raw reference under two flow kinds must not collide.
	assert.NotEqual(t, Key(KindQueue, ref), Key(KindDraft, ref))
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s, _ := newTestStore(t)

	state := QueueState{Owner: "user-1", Page: 2, PageSize: 5}
	s.Put("queue_state:ref1", state, TTLPagination)

	got, ok := s.Get("queue_state:ref1")
	require.True(t, ok)
	assert.Equal(t, state, got)

	s.Delete("queue_state:ref1")
	_, ok = s.Get("queue_state:ref1")
	assert.False(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s, now := newTestStore(t)

	s.Put("fp_state:ref1", ConfirmState{Owner: "user-1", TargetID: "note-9"}, 1*time.Second)

	_, ok := s.Get("fp_state:ref1")
	require.True(t, ok, "entry should be retrievable before expiry")

	*now = now.Add(2 * time.Second)
	_, ok = s.Get("fp_state:ref1")
	assert.False(t, ok, "entry should be absent after TTL")

	// Expired reads must stay absent on retry.
	_, ok = s.Get("fp_state:ref1")
	assert.False(t, ok)
}

func TestMemoryStore_AbsentKeyIsNormal(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok := s.Get("queue_state:never-existed")
	assert.False(t, ok)
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	s, now := newTestStore(t)

	s.Put("a", QueueState{Owner: "u"}, 1*time.Second)
	s.Put("b", QueueState{Owner: "u"}, 1*time.Hour)

	*now = now.Add(time.Minute)
	s.sweepExpired()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.NotContains(t, s.data, "a")
	assert.Contains(t, s.data, "b")
}

func TestMemoryStore_Len(t *testing.T) {
	s, now := newTestStore(t)

	s.Put("a", QueueState{Owner: "u"}, 1*time.Second)
	s.Put("b", QueueState{Owner: "u"}, 1*time.Hour)
	assert.Equal(t, 2, s.Len())

	*now = now.Add(time.Minute)
	assert.Equal(t, 1, s.Len(), "expired entries should not count")
}

func TestLookup_TypeMismatchIsAbsence(t *testing.T) {
	s, _ := newTestStore(t)
	s.Put("k", QueueState{Owner: "u"}, time.Minute)

	_, ok := Lookup[ConfirmState](s, "k")
	assert.False(t, ok)

	got, ok := Lookup[QueueState](s, "k")
	require.True(t, ok)
	assert.Equal(t, "u", got.Owner)
}

func TestTTLTiers_RelativeOrdering(t *testing.T) {
	assert.Less(t, TTLConfirm, TTLPagination)
	assert.Less(t, TTLPagination, TTLDraft)
}
