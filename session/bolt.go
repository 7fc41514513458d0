package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var sessionBucket = []byte("sessions")

// boltEntry is the on-disk envelope for a session payload. The kind tag
// drives payload decoding on the way back out.
type boltEntry struct {
	Kind      Kind            `json:"kind"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// BoltStore stores sessions in a bbolt database so in-flight flows
// survive a process restart. Payloads hold no secrets, so entries are
// stored as plain JSON.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore wraps an open bbolt database and starts the background
// sweep of expired entries.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}
	s := &BoltStore{
		db:     db,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.sweepLoop()
	return s, nil
}

// NewBoltStoreFromFile opens a bbolt database at the given path and
// returns a session store backed by it.
func NewBoltStoreFromFile(path string, options *bbolt.Options) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltStore(db)
}

// Close stops the background sweep and closes the database.
func (s *BoltStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return s.db.Close()
}

func (s *BoltStore) Put(key string, payload Payload, ttl time.Duration) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(boltEntry{
		Kind:      payload.SessionKind(),
		ExpiresAt: s.now().Add(ttl),
		Payload:   raw,
	})
	if err != nil {
		return
	}
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), data)
	})
}

func (s *BoltStore) Get(key string) (Payload, bool) {
	var e boltEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("absent")
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, false
	}
	if s.now().After(e.ExpiresAt) {
		s.Delete(key)
		return nil, false
	}
	payload, err := decodePayload(e.Kind, e.Payload)
	if err != nil {
		// Corrupt or unknown entry: remove it and report absence.
		s.Delete(key)
		return nil, false
	}
	return payload, true
}

func (s *BoltStore) Delete(key string) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
}

func (s *BoltStore) Len() int {
	n := 0
	now := s.now()
	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(_, data []byte) error {
			var e boltEntry
			if err := json.Unmarshal(data, &e); err == nil && now.Before(e.ExpiresAt) {
				n++
			}
			return nil
		})
	})
	return n
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case KindQueue, KindReview:
		var p QueueState
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindConfirm:
		var p ConfirmState
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindDraft:
		var p DraftState
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}
}

func (s *BoltStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *BoltStore) sweepExpired() {
	now := s.now()
	var stale [][]byte
	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(k, data []byte) error {
			var e boltEntry
			if err := json.Unmarshal(data, &e); err != nil || now.After(e.ExpiresAt) {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
			return nil
		})
	})
	if len(stale) == 0 {
		return
	}
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		for _, k := range stale {
			_ = b.Delete(k)
		}
		return nil
	})
}
