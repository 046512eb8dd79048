package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub keeps in-process rooms keyed by board id.
type Hub struct {
	log    *logrus.Logger
	buffer int

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Subscription]struct{}
}

// Subscription receives the events of one board until closed.
type Subscription struct {
	BoardID uuid.UUID

	hub    *Hub
	ch     chan Event
	closed bool
}

func NewHub(log *logrus.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		log:    log,
		buffer: buffer,
		rooms:  make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(boardID uuid.UUID) *Subscription {
	sub := &Subscription{BoardID: boardID, hub: h, ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	room, ok := h.rooms[boardID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[boardID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close leaves the room. Safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)

	if room, ok := h.rooms[s.BoardID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, s.BoardID)
		}
	}
}

// Closed reports whether Close was called.
func (s *Subscription) Closed() bool {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.closed
}

// Publish delivers ev to every subscriber of its board without blocking.
func (h *Hub) Publish(_ context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[ev.BoardID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.WithFields(logrus.Fields{
				"board_id": ev.BoardID,
				"event":    ev.Type,
			}).Warn("realtime subscriber buffer full, dropping event")
		}
	}
}

func (h *Hub) Subscribers(boardID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}
