package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) (*BoltStore, *time.Time) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewBoltStoreFromFile(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestBoltStore_RoundTripAllKinds(t *testing.T) {
	s, _ := newTestBoltStore(t)

	queue := QueueState{
		Owner:      "user-1",
		GuildID:    "guild-1",
		Page:       3,
		PageSize:   5,
		IsAdmin:    true,
		Thresholds: ConfigSnapshot{RatingThreshold: 4, EphemeralReplies: true},
	}
	confirm := ConfirmState{Owner: "user-2", TargetID: "note-7"}
	draft := DraftState{Owner: "user-3", RequestID: "req-1"}

	s.Put("queue_state:r1", queue, time.Minute)
	s.Put("fp_state:r2", confirm, time.Minute)
	s.Put("write_note_modal_state:r3", draft, time.Minute)

	got, ok := Lookup[QueueState](s, "queue_state:r1")
	require.True(t, ok)
	assert.Equal(t, queue, got)

	gotConfirm, ok := Lookup[ConfirmState](s, "fp_state:r2")
	require.True(t, ok)
	assert.Equal(t, confirm, gotConfirm)

	gotDraft, ok := Lookup[DraftState](s, "write_note_modal_state:r3")
	require.True(t, ok)
	assert.Equal(t, draft, gotDraft)
}

func TestBoltStore_TTLExpiry(t *testing.T) {
	s, now := newTestBoltStore(t)

	s.Put("fp_state:r1", ConfirmState{Owner: "u", TargetID: "n"}, 1*time.Second)
	_, ok := s.Get("fp_state:r1")
	require.True(t, ok)

	*now = now.Add(2 * time.Second)
	_, ok = s.Get("fp_state:r1")
	assert.False(t, ok)
}

func TestBoltStore_SweepRemovesExpired(t *testing.T) {
	s, now := newTestBoltStore(t)

	s.Put("a", QueueState{Owner: "u"}, 1*time.Second)
	s.Put("b", QueueState{Owner: "u"}, 1*time.Hour)

	*now = now.Add(time.Minute)
	s.sweepExpired()

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("b")
	assert.True(t, ok)
}

func TestBoltStore_DeleteAbsentIsNoop(t *testing.T) {
	s, _ := newTestBoltStore(t)
	s.Delete("never-existed")
	assert.Equal(t, 0, s.Len())
}
