// Package session provides the ephemeral, TTL-bounded state store backing
// multi-step interaction flows. Entries are addressed by a namespaced key
// combining the flow kind with an opaque reference, so two flows that
// independently draw the same raw reference cannot collide.
//
// Absence on Get is a normal outcome, not an error: it means the session
// expired or never existed, and callers must prompt the user to restart
// the flow rather than proceed with defaulted state.
package session

import (
	"fmt"
	"time"

	"github.com/dmaines/notewarden/token"
)

// Kind namespaces session keys by flow.
type Kind string

const (
	KindQueue   Kind = "queue_state"
	KindReview  Kind = "pagination"
	KindConfirm Kind = "fp_state"
	KindDraft   Kind = "write_note_modal_state"
)

// Default TTL tiers. The relative ordering (confirm < pagination < draft)
// is the contract; the exact values are tunable through config.
const (
	TTLConfirm    = 60 * time.Second
	TTLPagination = 5 * time.Minute
	TTLDraft      = 15 * time.Minute
)

// Key builds the namespaced store key for a flow kind and reference.
func Key(kind Kind, ref token.Reference) string {
	return fmt.Sprintf("%s:%s", kind, ref)
}

// Payload is the state carried by a session entry. Every payload embeds
// the owning user id; reads must be checked against the acting user
// before any mutation or privileged render.
type Payload interface {
	SessionKind() Kind
	OwnerID() string
}

// QueueState is the pagination and filter context for a browsing flow.
type QueueState struct {
	Owner      string         `json:"owner"`
	GuildID    string         `json:"guild_id,omitempty"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	IsAdmin    bool           `json:"is_admin"`
	Thresholds ConfigSnapshot `json:"thresholds"`
}

func (s QueueState) SessionKind() Kind { return KindQueue }
func (s QueueState) OwnerID() string   { return s.Owner }

// ConfigSnapshot caches the guild configuration in effect when the flow
// started, so navigation does not re-fetch it on every click.
type ConfigSnapshot struct {
	RatingThreshold  int  `json:"rating_threshold"`
	EphemeralReplies bool `json:"ephemeral_replies"`
}

// ConfirmState is the pending half of a two-step destructive action.
type ConfirmState struct {
	Owner    string `json:"owner"`
	TargetID string `json:"target_id"`
}

func (s ConfirmState) SessionKind() Kind { return KindConfirm }
func (s ConfirmState) OwnerID() string   { return s.Owner }

// DraftState binds a pending modal submission to the request it is
// for. The note text and classification travel with the submission
// itself, so only the binding needs to survive here.
type DraftState struct {
	Owner     string `json:"owner"`
	RequestID string `json:"request_id"`
}

func (s DraftState) SessionKind() Kind { return KindDraft }
func (s DraftState) OwnerID() string   { return s.Owner }

// Store abstracts session CRUD so entries can live in memory (default)
// or in persistent backing storage. Individual entries are independently
// consistent; the store provides no cross-key transactions and no
// compare-and-swap.
type Store interface {
	// Put creates or replaces the entry under key with the given TTL.
	Put(key string, payload Payload, ttl time.Duration)
	// Get returns the payload, or false if the entry does not exist or
	// has expired.
	Get(key string) (Payload, bool)
	// Delete removes the entry. Deleting an absent key is a no-op.
	Delete(key string)
	// Len reports the number of live entries, for operational status.
	Len() int
}

// Lookup fetches and type-asserts a session payload in one step. A type
// mismatch is treated the same as absence: the flow restarts.
func Lookup[T Payload](s Store, key string) (T, bool) {
	var zero T
	p, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := p.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
