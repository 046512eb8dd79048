// Package realtime fans board events out to connected viewers.
//
// Publishing is fire and forget: a Publisher never blocks the caller and never
// returns an error. Slow subscribers lose events, and nothing is replayed; a
// client that reconnects is expected to re-fetch the board.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Event types carried on a board channel.
const (
	TaskCreated    = "task-created"
	TaskUpdated    = "task-updated"
	TaskDeleted    = "task-deleted"
	TasksReordered = "tasks-reordered"
	BoardUpdated   = "board-updated"
	BoardDeleted   = "board-deleted"
	MemberAdded    = "member-added"
	MemberRemoved  = "member-removed"
)

type Event struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"boardId"`
	Payload any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}

// Revokes reports whether ev takes the board away from userID: the board was
// deleted, or userID was removed from its members.
func Revokes(ev Event, userID uuid.UUID) bool {
	switch ev.Type {
	case BoardDeleted:
		return true
	case MemberRemoved:
		var p struct {
			UserID uuid.UUID `json:"userId"`
		}
		if err := decodePayload(ev.Payload, &p); err != nil {
			return false
		}
		return p.UserID == userID
	}
	return false
}

// decodePayload reads both local payloads and the raw JSON that arrives through redis.
func decodePayload(payload any, v any) error {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = sonic.Marshal(payload); err != nil {
			return err
		}
	}
	return sonic.Unmarshal(raw, v)
}
