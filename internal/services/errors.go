package services

import (
	"errors"
	"fmt"

	"github.com/examtree/examtree-backend/internal/domain"
)

// Validation-class sentinels. All of them reject before any mutation.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidOrder   = errors.New("order number must be positive")
	ErrOrderConflict  = errors.New("order number already taken by a sibling")
	ErrCrossScope     = errors.New("moving a record to a different parent is not allowed")
	ErrDuplicateName  = errors.New("name already exists under this parent")
	ErrNameRequired   = errors.New("name is required")
	ErrParentRequired = errors.New("parent is required")
	ErrInvalidPath    = errors.New("invalid navigation path")
)

// PartialCascadeError reports a cascade that failed after some levels
// already committed. Completed holds the per-level counts that were
// applied; the operation is safe to retry because each level's write is
// idempotent.
type PartialCascadeError struct {
	Op        string
	Target    domain.Level
	Failed    domain.Level
	Completed map[domain.Level]int64
	Err       error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("%s cascade from %s failed at %s after %d levels: %v",
		e.Op, e.Target, e.Failed, len(e.Completed), e.Err)
}

func (e *PartialCascadeError) Unwrap() error { return e.Err }
