package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskboard/internal/realtime"
	"taskboard/internal/service"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sseKeepAlive = 25 * time.Second

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4096
	wsOutBuffer  = 32
)

// Client -> server frames of the websocket room protocol.
const (
	wsJoinBoard  = "join-board"
	wsLeaveBoard = "leave-board"
)

// BoardAccess answers whether a user may watch a board.
type BoardAccess interface {
	CanView(ctx context.Context, userID, boardID uuid.UUID) error
}

type StreamHandler struct {
	boards   BoardAccess
	hub      *realtime.Hub
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler accepts websocket handshakes from clientURL only
// ("*" or an empty value allows any origin).
func NewStreamHandler(boards BoardAccess, hub *realtime.Hub, clientURL string, log *logrus.Logger) *StreamHandler {
	allowed := strings.TrimRight(clientURL, "/")
	return &StreamHandler{
		boards: boards,
		hub:    hub,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed == "" || allowed == "*" || strings.TrimRight(origin, "/") == allowed
			},
		},
	}
}

// Events стримит события доски как Server-Sent Events.
func (h *StreamHandler) Events(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uuidParam(c, "id", "board")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.boards.CanView(ctx, userID, boardID); err != nil {
		respondError(c, h.log, err)
		return
	}

	sub := h.hub.Subscribe(boardID)
	defer sub.Close()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.log.WithFields(logrus.Fields{"board_id": boardID, "user_id": userID}).Debug("sse stream opened")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev.Payload)
			if realtime.Revokes(ev, userID) {
				h.log.WithFields(logrus.Fields{"board_id": boardID, "user_id": userID}).Debug("sse stream closed, access revoked")
				return false
			}
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

type wsInbound struct {
	Type    string `json:"type"`
	BoardID string `json:"boardId"`
}

type wsOutbound struct {
	Event   string     `json:"event"`
	BoardID *uuid.UUID `json:"boardId,omitempty"`
	Data    any        `json:"data,omitempty"`
}

// WebSocket speaks the room protocol: the client sends join-board and
// leave-board frames and receives {event, boardId, data} for every joined board.
func (h *StreamHandler) WebSocket(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s := &wsSession{
		h:          h,
		conn:       conn,
		userID:     userID,
		out:        make(chan wsOutbound, wsOutBuffer),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
		rooms:      make(map[uuid.UUID]*realtime.Subscription),
	}
	s.run(c.Request.Context())
}

type wsSession struct {
	h      *StreamHandler
	conn   *websocket.Conn
	userID uuid.UUID

	out        chan wsOutbound
	quit       chan struct{}
	writerDone chan struct{}

	// rooms is owned by the read loop
	rooms map[uuid.UUID]*realtime.Subscription
	wg    sync.WaitGroup
}

func (s *wsSession) run(ctx context.Context) {
	go s.writeLoop()
	defer s.shutdown()

	s.conn.SetReadLimit(wsReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.h.log.WithError(err).WithField("user_id", s.userID).Debug("websocket closed")
			}
			return
		}

		var msg wsInbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			s.sendError("Malformed message")
			continue
		}
		if msg.Type != wsJoinBoard && msg.Type != wsLeaveBoard {
			s.sendError("Unknown message type")
			continue
		}
		boardID, err := uuid.Parse(msg.BoardID)
		if err != nil {
			s.sendError("Invalid board ID format")
			continue
		}
		if msg.Type == wsJoinBoard {
			s.join(ctx, boardID)
		} else {
			s.leave(boardID)
		}
	}
}

func (s *wsSession) join(ctx context.Context, boardID uuid.UUID) {
	if sub, ok := s.rooms[boardID]; ok && !sub.Closed() {
		return
	}
	if err := s.h.boards.CanView(ctx, s.userID, boardID); err != nil {
		var se *service.Error
		if errors.As(err, &se) && se.Kind != service.KindUnexpected {
			s.sendError(se.Message)
		} else {
			s.h.log.WithError(err).WithField("board_id", boardID).Error("websocket join failed")
			s.sendError("Internal server error")
		}
		return
	}

	sub := s.h.hub.Subscribe(boardID)
	s.rooms[boardID] = sub
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range sub.Events() {
			id := ev.BoardID
			s.send(wsOutbound{Event: ev.Type, BoardID: &id, Data: ev.Payload})
			if realtime.Revokes(ev, s.userID) {
				// the room entry stays until the read loop sees it closed
				sub.Close()
				s.send(wsOutbound{Event: "left-board", BoardID: &id})
				return
			}
		}
	}()
	s.send(wsOutbound{Event: "joined-board", BoardID: &boardID})
}

func (s *wsSession) leave(boardID uuid.UUID) {
	sub, ok := s.rooms[boardID]
	if !ok {
		return
	}
	revoked := sub.Closed()
	sub.Close()
	delete(s.rooms, boardID)
	if !revoked {
		s.send(wsOutbound{Event: "left-board", BoardID: &boardID})
	}
}

func (s *wsSession) send(msg wsOutbound) {
	select {
	case s.out <- msg:
	case <-s.writerDone:
	}
}

func (s *wsSession) sendError(message string) {
	s.send(wsOutbound{Event: "error", Data: gin.H{"message": message}})
}

func (s *wsSession) writeLoop() {
	defer close(s.writerDone)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.out:
			payload, err := sonic.Marshal(msg)
			if err != nil {
				s.h.log.WithError(err).WithField("event", msg.Event).Error("encode websocket frame")
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-s.quit:
			return
		}
	}
}

func (s *wsSession) shutdown() {
	for id, sub := range s.rooms {
		sub.Close()
		delete(s.rooms, id)
	}
	s.wg.Wait()
	close(s.quit)
	<-s.writerDone
	_ = s.conn.Close()
}
