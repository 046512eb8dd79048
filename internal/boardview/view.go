// Package boardview is the client side of a board: it keeps a local copy of
// the board and its tasks, applies drags optimistically and merges realtime
// events into the copy without re-fetching.
package boardview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"taskboard/internal/dto"
	"taskboard/internal/realtime"
	"taskboard/internal/reorder"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type SyncState int

const (
	Synced SyncState = iota
	Pending
	Reverting
)

func (s SyncState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Reverting:
		return "reverting"
	}
	return "synced"
}

var (
	ErrNotLoaded   = errors.New("boardview: board is not loaded")
	ErrUnknownTask = errors.New("boardview: task is not on this board")
)

// API is the slice of the REST surface the view talks to.
type API interface {
	Board(ctx context.Context, boardID uuid.UUID) (*dto.Board, error)
	Tasks(ctx context.Context, boardID uuid.UUID) ([]dto.Task, error)
	Reorder(ctx context.Context, entries []reorder.Placement) ([]dto.Task, error)
}

// Event is one realtime frame addressed to a board.
type Event struct {
	Type    string          `json:"event"`
	BoardID uuid.UUID       `json:"boardId"`
	Data    json.RawMessage `json:"data"`
}

type transition struct {
	id    uuid.UUID
	state SyncState
}

type View struct {
	api     API
	boardID uuid.UUID

	mu      sync.Mutex
	board   dto.Board
	loaded  bool
	deleted bool
	tasks   map[uuid.UUID]dto.Task // what the user sees
	synced  map[uuid.UUID]dto.Task // last state confirmed by the server
	states  map[uuid.UUID]SyncState
	observe func(taskID uuid.UUID, state SyncState)
}

func New(api API, boardID uuid.UUID) *View {
	return &View{
		api:     api,
		boardID: boardID,
		tasks:   make(map[uuid.UUID]dto.Task),
		synced:  make(map[uuid.UUID]dto.Task),
		states:  make(map[uuid.UUID]SyncState),
	}
}

// OnStateChange registers fn to be called, outside the view lock, every time a
// task changes its sync state.
func (v *View) OnStateChange(fn func(taskID uuid.UUID, state SyncState)) {
	v.mu.Lock()
	v.observe = fn
	v.mu.Unlock()
}

func (v *View) BoardID() uuid.UUID { return v.boardID }

// Load fetches the board and its tasks and replaces the local copy.
func (v *View) Load(ctx context.Context) error {
	board, err := v.api.Board(ctx, v.boardID)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	tasks, err := v.api.Tasks(ctx, v.boardID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	v.mu.Lock()
	v.board = *board
	v.loaded = true
	v.deleted = false
	v.states = make(map[uuid.UUID]SyncState)
	v.adopt(tasks)
	v.mu.Unlock()
	return nil
}

func (v *View) Board() dto.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.board
}

// Deleted reports whether a board-deleted event arrived for this board.
func (v *View) Deleted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleted
}

// Column returns the tasks of a column in display order.
func (v *View) Column(name string) []dto.Task {
	v.mu.Lock()
	defer v.mu.Unlock()

	var out []dto.Task
	for _, t := range v.tasks {
		if t.Column == name {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (v *View) Task(id uuid.UUID) (dto.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.tasks[id]
	return t, ok
}

func (v *View) State(id uuid.UUID) SyncState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[id]
}

// Move drops taskID into column before the task `before`, or at the column
// tail when before is nil. The new placement is shown right away and sent as
// a reorder batch; if the server refuses it the changed tasks go back to their
// last confirmed placement and the error is returned.
func (v *View) Move(ctx context.Context, taskID uuid.UUID, column string, before *uuid.UUID) error {
	v.mu.Lock()
	if !v.loaded {
		v.mu.Unlock()
		return ErrNotLoaded
	}
	if _, ok := v.tasks[taskID]; !ok {
		v.mu.Unlock()
		return ErrUnknownTask
	}

	plan := reorder.NewBoard(v.items())
	if err := plan.Apply(reorder.Move{TaskID: taskID, Column: column, Before: before}); err != nil {
		v.mu.Unlock()
		return err
	}
	changes := plan.Changes()
	if len(changes) == 0 {
		v.mu.Unlock()
		return nil
	}

	notes := make([]transition, 0, len(changes))
	for _, p := range changes {
		t := v.tasks[p.ID]
		t.Column, t.Order = p.Column, p.Order
		v.tasks[p.ID] = t
		v.states[p.ID] = Pending
		notes = append(notes, transition{p.ID, Pending})
	}
	v.mu.Unlock()
	v.notify(notes)

	server, err := v.api.Reorder(ctx, changes)

	v.mu.Lock()
	notes = notes[:0]
	if err != nil {
		for _, p := range changes {
			v.states[p.ID] = Reverting
			notes = append(notes, transition{p.ID, Reverting})
		}
		for _, p := range changes {
			if good, ok := v.synced[p.ID]; ok {
				v.tasks[p.ID] = good
			}
			delete(v.states, p.ID)
			notes = append(notes, transition{p.ID, Synced})
		}
		v.mu.Unlock()
		v.notify(notes)
		return fmt.Errorf("move task %s: %w", taskID, err)
	}

	for _, p := range changes {
		delete(v.states, p.ID)
		notes = append(notes, transition{p.ID, Synced})
	}
	if server != nil {
		v.adopt(server)
	} else {
		for _, p := range changes {
			v.synced[p.ID] = v.tasks[p.ID]
		}
	}
	v.mu.Unlock()
	v.notify(notes)
	return nil
}

// Apply merges a realtime event. Events of other boards are ignored.
func (v *View) Apply(ev Event) error {
	if ev.BoardID != v.boardID {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Type {
	case realtime.TaskCreated, realtime.TaskUpdated:
		var t dto.Task
		if err := decode(ev, &t); err != nil {
			return err
		}
		if t.Board != v.boardID {
			return nil
		}
		v.synced[t.ID] = t
		if v.states[t.ID] != Pending {
			v.tasks[t.ID] = t
		}

	case realtime.TaskDeleted:
		var id uuid.UUID
		if err := decode(ev, &id); err != nil {
			return err
		}
		delete(v.tasks, id)
		delete(v.synced, id)
		delete(v.states, id)

	case realtime.TasksReordered:
		var list []dto.Task
		if err := decode(ev, &list); err != nil {
			return err
		}
		v.adopt(list)

	case realtime.BoardUpdated:
		var b dto.Board
		if err := decode(ev, &b); err != nil {
			return err
		}
		v.board = b

	case realtime.BoardDeleted:
		v.deleted = true

	case realtime.MemberAdded:
		var p dto.MemberAddedPayload
		if err := decode(ev, &p); err != nil {
			return err
		}
		v.upsertMember(p.Member)

	case realtime.MemberRemoved:
		var p dto.MemberRemovedPayload
		if err := decode(ev, &p); err != nil {
			return err
		}
		members := v.board.Members[:0:0]
		for _, m := range v.board.Members {
			if m.User.ID != p.UserID {
				members = append(members, m)
			}
		}
		v.board.Members = members
	}
	return nil
}

func decode(ev Event, out any) error {
	if err := sonic.Unmarshal(ev.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	return nil
}

func (v *View) upsertMember(m dto.Member) {
	for i := range v.board.Members {
		if v.board.Members[i].User.ID == m.User.ID {
			v.board.Members[i] = m
			return
		}
	}
	v.board.Members = append(v.board.Members, m)
}

// adopt makes list the confirmed state. Tasks whose move is still in flight
// keep their local placement. Caller holds mu.
func (v *View) adopt(list []dto.Task) {
	tasks := make(map[uuid.UUID]dto.Task, len(list))
	synced := make(map[uuid.UUID]dto.Task, len(list))
	for _, t := range list {
		synced[t.ID] = t
		tasks[t.ID] = t
		if v.states[t.ID] == Pending {
			if local, ok := v.tasks[t.ID]; ok {
				tasks[t.ID] = local
			}
		}
	}
	for id := range v.states {
		if _, ok := tasks[id]; !ok {
			delete(v.states, id)
		}
	}
	v.tasks, v.synced = tasks, synced
}

func (v *View) items() []reorder.Item {
	items := make([]reorder.Item, 0, len(v.tasks))
	for _, t := range v.tasks {
		items = append(items, reorder.Item{ID: t.ID, Column: t.Column, Order: t.Order, CreatedAt: t.CreatedAt})
	}
	return items
}

func (v *View) notify(notes []transition) {
	v.mu.Lock()
	fn := v.observe
	v.mu.Unlock()
	if fn == nil {
		return
	}
	for _, n := range notes {
		fn(n.id, n.state)
	}
}
