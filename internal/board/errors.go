package board

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the referenced post never existed (or its parent is
	// missing at reply creation).
	ErrNotFound = errors.New("post not found")

	// ErrGone means the echo existed but has faded or been purified; the
	// caller should render "this echo has faded", not a generic failure.
	ErrGone = errors.New("this echo has faded")

	// ErrInvalidVote rejects any vote value other than +1 or -1.
	ErrInvalidVote = errors.New("vote value must be +1 or -1")

	// ErrEmptyContent and ErrContentTooLong reject bad post bodies.
	ErrEmptyContent   = errors.New("content must not be empty")
	ErrContentTooLong = errors.New("content exceeds the maximum length")

	// ErrMissingFingerprint rejects write operations without an identity
	// fingerprint; votes and bans key off it.
	ErrMissingFingerprint = errors.New("identity fingerprint required")
)

// BannedError rejects a write from a banned fingerprint. ExpiresAt is nil
// for a permanent ban.
type BannedError struct {
	ExpiresAt *time.Time
}

func (e *BannedError) Error() string {
	if e.ExpiresAt == nil {
		return "fingerprint is banned"
	}
	return fmt.Sprintf("fingerprint is banned until %s", e.ExpiresAt.Format(time.RFC3339))
}
