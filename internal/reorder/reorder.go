// Package reorder plans task moves inside a board.
//
// A Board is an in-memory snapshot of every task of one board grouped by
// column. Moves mutate the snapshot; Changes reports the placements that
// differ from what was loaded so callers persist only those. Every column is
// kept dense: orders are always 0..n-1 recomputed from sequence position.
package reorder

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownTask      = errors.New("task not found on board")
	ErrUnknownReference = errors.New("reference task not found on board")
	ErrReferenceColumn  = errors.New("reference task is in another column")
)

// Item is a task as loaded from the store.
type Item struct {
	ID        uuid.UUID
	Column    string
	Order     int
	CreatedAt time.Time
}

// Placement is the (column, order) assignment of one task.
type Placement struct {
	ID     uuid.UUID `json:"id"`
	Column string    `json:"column"`
	Order  int       `json:"order"`
}

// Move relocates TaskID into Column. With Before set the task takes the
// reference task's index, otherwise it is appended to the tail.
type Move struct {
	TaskID uuid.UUID
	Column string
	Before *uuid.UUID
}

type Board struct {
	columns  map[string][]uuid.UUID
	location map[uuid.UUID]string
	loaded   map[uuid.UUID]Placement
}

func NewBoard(items []Item) *Board {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})

	b := &Board{
		columns:  make(map[string][]uuid.UUID),
		location: make(map[uuid.UUID]string, len(items)),
		loaded:   make(map[uuid.UUID]Placement, len(items)),
	}
	for _, it := range sorted {
		b.columns[it.Column] = append(b.columns[it.Column], it.ID)
		b.location[it.ID] = it.Column
		b.loaded[it.ID] = Placement{ID: it.ID, Column: it.Column, Order: it.Order}
	}
	return b
}

func (b *Board) Contains(id uuid.UUID) bool {
	_, ok := b.location[id]
	return ok
}

// Apply performs a single move. The board is left untouched on error.
func (b *Board) Apply(m Move) error {
	src, ok := b.location[m.TaskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, m.TaskID)
	}

	insertAt := -1
	if m.Before != nil {
		if *m.Before == m.TaskID {
			if src != m.Column {
				return ErrReferenceColumn
			}
			return nil
		}
		refCol, ok := b.location[*m.Before]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownReference, *m.Before)
		}
		if refCol != m.Column {
			return ErrReferenceColumn
		}
		insertAt = slices.Index(b.columns[refCol], *m.Before)
	}

	b.remove(m.TaskID)
	b.insert(m.TaskID, m.Column, insertAt)
	return nil
}

// ApplyBatch applies positional entries: every entry is taken out of its
// column first, then entries are inserted per column in ascending order at
// index Order (clamped to the tail). Entries must have passed ValidateBatch.
func (b *Board) ApplyBatch(entries []Placement) error {
	for _, e := range entries {
		if !b.Contains(e.ID) {
			return fmt.Errorf("%w: %s", ErrUnknownTask, e.ID)
		}
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(x, y Placement) int {
		return cmp.Or(strings.Compare(x.Column, y.Column), cmp.Compare(x.Order, y.Order))
	})

	for _, e := range sorted {
		b.remove(e.ID)
	}
	for _, e := range sorted {
		b.insert(e.ID, e.Column, e.Order)
	}
	return nil
}

// Column returns the current dense placements of one column.
func (b *Board) Column(name string) []Placement {
	ids := b.columns[name]
	out := make([]Placement, len(ids))
	for i, id := range ids {
		out[i] = Placement{ID: id, Column: name, Order: i}
	}
	return out
}

// Placements returns every task sorted by column then order.
func (b *Board) Placements() []Placement {
	names := make([]string, 0, len(b.columns))
	for name := range b.columns {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Placement, 0, len(b.location))
	for _, name := range names {
		out = append(out, b.Column(name)...)
	}
	return out
}

// Changes lists placements that differ from the loaded snapshot.
func (b *Board) Changes() []Placement {
	var out []Placement
	for _, p := range b.Placements() {
		if b.loaded[p.ID] != p {
			out = append(out, p)
		}
	}
	return out
}

func (b *Board) remove(id uuid.UUID) {
	col := b.location[id]
	seq := b.columns[col]
	if i := slices.Index(seq, id); i >= 0 {
		seq = slices.Delete(seq, i, i+1)
	}
	if len(seq) == 0 {
		delete(b.columns, col)
	} else {
		b.columns[col] = seq
	}
	delete(b.location, id)
}

// insert puts id at index in column; a negative or out of range index appends.
func (b *Board) insert(id uuid.UUID, column string, index int) {
	seq := b.columns[column]
	if index < 0 || index > len(seq) {
		index = len(seq)
	}
	b.columns[column] = slices.Insert(seq, index, id)
	b.location[id] = column
}
