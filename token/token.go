// Package token implements the opaque reference and action token formats
// used to correlate rendered UI components with server-side session state.
//
// An action token is a colon-delimited string of the form
// "verb:arg1:...:argN". It is the only identifier attached to a UI
// component, so it must stay under the rendering surface's custom-id
// length limit. Decoding is strict: the part count must match what the
// registered handler expects, and no part may be empty.
package token

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCustomIDLen is the rendering surface's hard limit on component
// identifiers. Encode callers must stay below it; exceeding it is a
// programming error caught at encode time.
const MaxCustomIDLen = 100

// ErrMalformedToken is returned when an action token cannot be decoded:
// wrong part count, empty segment, or a verb outside the closed vocabulary.
var ErrMalformedToken = errors.New("malformed action token")

// ErrTokenTooLong is returned by Encode when the assembled token would
// exceed MaxCustomIDLen.
var ErrTokenTooLong = errors.New("action token exceeds custom id limit")

// Verb identifies the action a UI component triggers. The vocabulary is
// closed: decoding any verb not listed here fails with ErrMalformedToken.
type Verb string

const (
	VerbQueuePrev      Verb = "queue_prev"
	VerbQueueNext      Verb = "queue_next"
	VerbReviewPrev     Verb = "review_prev"
	VerbReviewNext     Verb = "review_next"
	VerbRateHelpful    Verb = "rate_helpful"
	VerbRateUnhelpful  Verb = "rate_unhelpful"
	VerbNoteWrite      Verb = "note_write"
	VerbNoteSubmit     Verb = "note_submit"
	VerbNoteAI         Verb = "note_ai"
	VerbPublishAsk     Verb = "fp_ask"
	VerbPublishConfirm Verb = "fp_confirm"
	VerbPublishCancel  Verb = "fp_cancel"
)

var verbs = map[Verb]struct{}{
	VerbQueuePrev:      {},
	VerbQueueNext:      {},
	VerbReviewPrev:     {},
	VerbReviewNext:     {},
	VerbRateHelpful:    {},
	VerbRateUnhelpful:  {},
	VerbNoteWrite:      {},
	VerbNoteSubmit:     {},
	VerbNoteAI:         {},
	VerbPublishAsk:     {},
	VerbPublishConfirm: {},
	VerbPublishCancel:  {},
}

// ParseVerb validates a raw verb segment against the closed vocabulary.
func ParseVerb(s string) (Verb, error) {
	v := Verb(s)
	if _, ok := verbs[v]; !ok {
		return "", fmt.Errorf("verb %q: %w", s, ErrMalformedToken)
	}
	return v, nil
}

// Token is a decoded action token.
type Token struct {
	Verb Verb
	Args []string
}

// Ref returns the trailing argument, which by convention is the opaque
// session reference for verbs that carry one.
func (t Token) Ref() Reference {
	if len(t.Args) == 0 {
		return ""
	}
	return Reference(t.Args[len(t.Args)-1])
}

// Encode assembles an action token. Args must be non-empty and must not
// contain the delimiter.
func Encode(verb Verb, args ...string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, string(verb))
	for _, a := range args {
		if a == "" || strings.Contains(a, ":") {
			return "", fmt.Errorf("arg %q: %w", a, ErrMalformedToken)
		}
		parts = append(parts, a)
	}
	s := strings.Join(parts, ":")
	if len(s) > MaxCustomIDLen {
		return "", fmt.Errorf("%d bytes: %w", len(s), ErrTokenTooLong)
	}
	return s, nil
}

// MustEncode is Encode for tokens whose parts are known constants at the
// call site. It panics on failure, which indicates a programming error.
func MustEncode(verb Verb, args ...string) string {
	s, err := Encode(verb, args...)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses a raw action token, requiring exactly wantParts segments
// (verb included). It fails closed: any mismatch returns ErrMalformedToken
// rather than a best-effort guess.
func Decode(raw string, wantParts int) (Token, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != wantParts {
		return Token{}, fmt.Errorf("got %d parts, want %d: %w", len(parts), wantParts, ErrMalformedToken)
	}
	for _, p := range parts {
		if p == "" {
			return Token{}, fmt.Errorf("empty segment: %w", ErrMalformedToken)
		}
	}
	verb, err := ParseVerb(parts[0])
	if err != nil {
		return Token{}, err
	}
	return Token{Verb: verb, Args: parts[1:]}, nil
}
