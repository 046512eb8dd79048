package boardview_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/boardview"
	"taskboard/internal/dto"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/realtime"
	"taskboard/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type access struct{ err error }

func (a access) CanView(context.Context, uuid.UUID, uuid.UUID) error { return a.err }

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func quickBackOff(retries uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
}

// realtimeServer serves the real websocket handler on top of a Hub.
func realtimeServer(t *testing.T, canView error) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	hub := realtime.NewHub(log, 8)
	h := handler.NewStreamHandler(access{err: canView}, hub, "", log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uuid.New())
		c.Next()
	})
	r.GET("/ws", h.WebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestSubscriber_FeedsView(t *testing.T) {
	s := newScenario(t)
	srv, hub := realtimeServer(t, nil)
	log, _ := test.NewNullLogger()
	sub := boardview.NewSubscriber(wsURL(srv), "tok", s.view, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool { return hub.Subscribers(s.boardID) == 1 }, 2*time.Second, 10*time.Millisecond)

	created := dto.Task{ID: uuid.New(), Board: s.boardID, Column: "Done", Title: "T4", Tags: []string{}}
	hub.Publish(ctx, realtime.Event{Type: realtime.TaskCreated, BoardID: s.boardID, Payload: created})
	hub.Publish(ctx, realtime.Event{Type: realtime.TaskDeleted, BoardID: s.boardID, Payload: s.t2})

	require.Eventually(t, func() bool {
		_, added := s.view.Task(created.ID)
		_, kept := s.view.Task(s.t2)
		return added && !kept
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestSubscriber_JoinRejected(t *testing.T) {
	s := newScenario(t)
	srv, _ := realtimeServer(t, service.Forbidden("Access denied"))
	log, _ := test.NewNullLogger()
	sub := boardview.NewSubscriber(wsURL(srv), "tok", s.view, log)
	sub.NewBackOff = quickBackOff(3)

	err := sub.Run(context.Background())

	assert.ErrorIs(t, err, boardview.ErrJoinRejected)
	assert.Contains(t, err.Error(), "Access denied")
}

func TestSubscriber_BoardDeletedStopsRun(t *testing.T) {
	s := newScenario(t)
	srv, hub := realtimeServer(t, nil)
	log, _ := test.NewNullLogger()
	sub := boardview.NewSubscriber(wsURL(srv), "tok", s.view, log)
	sub.NewBackOff = quickBackOff(3)

	done := make(chan error, 1)
	go func() { done <- sub.Run(context.Background()) }()
	require.Eventually(t, func() bool { return hub.Subscribers(s.boardID) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), realtime.Event{
		Type:    realtime.BoardDeleted,
		BoardID: s.boardID,
		Payload: dto.BoardDeletedPayload{BoardID: s.boardID},
	})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boardview.ErrAccessRevoked)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber kept running after the board was deleted")
	}
	assert.True(t, s.view.Deleted())
}

func TestSubscriber_ReconnectExhausted(t *testing.T) {
	s := newScenario(t)
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	log, hook := test.NewNullLogger()
	sub := boardview.NewSubscriber(wsURL(srv), "", s.view, log)
	sub.NewBackOff = quickBackOff(2)

	err := sub.Run(context.Background())

	assert.ErrorIs(t, err, boardview.ErrReconnectExhausted)
	assert.Equal(t, int32(3), dials.Load())
	assert.Len(t, hook.AllEntries(), 2)
}

func TestSubscriber_RefetchesAfterReconnect(t *testing.T) {
	s := newScenario(t)
	require.Equal(t, 1, s.api.loadCount())

	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"joined-board","boardId":"`+s.boardID.String()+`"}`))
		if n == 1 {
			// first connection drops right after the join
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	sub := boardview.NewSubscriber(wsURL(srv), "", s.view, log)
	sub.NewBackOff = quickBackOff(5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool { return s.api.loadCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), conns.Load())

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDefaultBackOff(t *testing.T) {
	b := boardview.DefaultBackOff()

	var waits []time.Duration
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			break
		}
		waits = append(waits, d)
	}

	require.Len(t, waits, 5)
	for _, d := range waits {
		// randomization factor 0.5 around at most 5s
		assert.LessOrEqual(t, d, 7500*time.Millisecond)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
	}
}
