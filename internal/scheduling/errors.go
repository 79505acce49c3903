package scheduling

import (
	"errors"
	"fmt"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

var (
	// ErrInvalidRequest: malformed input (bad window, missing identifiers).
	// Caller-fixable, never retried automatically.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound: the referenced shift/template/worker does not exist within
	// the given organization.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition: the requested lifecycle transition is not legal
	// from the shift's current status.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrConcurrentModification: the atomic commit lost a race after bounded
	// retries. The caller should re-fetch current state and retry the whole
	// operation, not just the commit.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// ConflictError is returned by mutating operations when a blocking conflict
// exists. Report carries the colliding shifts so the caller can show a human
// scheduler what got in the way.
type ConflictError struct {
	Report *domain.ConflictReport
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("window conflicts with %d committed shift(s)", len(e.Report.Conflicts))
}
