package block

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateBlockID matches any *DuplicateBlockIDError.
	ErrDuplicateBlockID = errors.New("duplicate block id")
	// ErrUnknownBlock matches any *UnknownBlockError.
	ErrUnknownBlock = errors.New("unknown block")
)

// DuplicateBlockIDError is returned when an explicit id is already taken.
type DuplicateBlockIDError struct {
	ID   string
	Line int // line of the offending start tag
}

func (e *DuplicateBlockIDError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("duplicate block id %q at line %d", e.ID, e.Line)
	}
	return fmt.Sprintf("duplicate block id %q", e.ID)
}

func (e *DuplicateBlockIDError) Is(target error) bool {
	return target == ErrDuplicateBlockID
}

// UnknownBlockError is returned by accessors asked for an id that is not in
// the store.
type UnknownBlockError struct {
	ID string
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("unknown block %q", e.ID)
}

func (e *UnknownBlockError) Is(target error) bool {
	return target == ErrUnknownBlock
}
