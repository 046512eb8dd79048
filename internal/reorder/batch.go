package reorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

var ErrEmptyBatch = errors.New("tasks must be a non-empty array")

// ValidateBatch checks the shape of a reorder request and reports every
// problem found, not just the first.
func ValidateBatch(entries []Placement) error {
	if len(entries) == 0 {
		return ErrEmptyBatch
	}

	type slot struct {
		column string
		order  int
	}

	var result *multierror.Error
	seenIDs := make(map[uuid.UUID]struct{}, len(entries))
	seenSlots := make(map[slot]struct{}, len(entries))

	for i, e := range entries {
		if e.ID == uuid.Nil {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: id is required", i))
		} else if _, dup := seenIDs[e.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: duplicate id %s", i, e.ID))
		} else {
			seenIDs[e.ID] = struct{}{}
		}

		if strings.TrimSpace(e.Column) == "" {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: column is required", i))
		}
		if e.Order < 0 {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: order must be non-negative", i))
			continue
		}

		s := slot{column: e.Column, order: e.Order}
		if _, dup := seenSlots[s]; dup {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: duplicate order %d in column %q", i, e.Order, e.Column))
		}
		seenSlots[s] = struct{}{}
	}

	return result.ErrorOrNil()
}
