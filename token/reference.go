package token

import (
	"fmt"

	"github.com/dmaines/notewarden/internal/util"
)

// referenceLen keeps the reference short enough that even the longest
// verb plus two arguments fits inside MaxCustomIDLen, while leaving the
// collision probability negligible within any session TTL window.
const referenceLen = 16

// Reference is a short random identifier used to look up session state
// without embedding the state itself in a UI component.
type Reference string

// NewReference generates a fresh opaque reference from a
// cryptographically-adequate random source.
func NewReference() (Reference, error) {
	s, err := util.RandomChars(referenceLen)
	if err != nil {
		return "", fmt.Errorf("generating reference: %w", err)
	}
	return Reference(s), nil
}

func (r Reference) String() string { return string(r) }
