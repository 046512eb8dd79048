package boardview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	// ErrReconnectExhausted means the stream is gone for good; the caller
	// should fall back to re-fetching the board.
	ErrReconnectExhausted = errors.New("boardview: reconnect attempts exhausted")
	ErrJoinRejected       = errors.New("boardview: server rejected join")
	// ErrAccessRevoked is returned when the server ends the room because the
	// board was deleted or the user was removed from it.
	ErrAccessRevoked = errors.New("boardview: access to the board was revoked")
)

const (
	reconnectInitial  = time.Second
	reconnectMax      = 5 * time.Second
	reconnectAttempts = 5
)

// DefaultBackOff waits 1s, 2s, 4s, 5s, 5s (with jitter) and then gives up.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitial
	b.MaxInterval = reconnectMax
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, reconnectAttempts)
}

// Subscriber keeps a View fed from the websocket room of its board.
type Subscriber struct {
	URL   string // ws://host/ws
	Token string
	View  *View

	Dialer     *websocket.Dialer
	NewBackOff func() backoff.BackOff
	Log        *logrus.Logger
}

func NewSubscriber(url, token string, view *View, log *logrus.Logger) *Subscriber {
	return &Subscriber{
		URL:        url,
		Token:      token,
		View:       view,
		Dialer:     websocket.DefaultDialer,
		NewBackOff: DefaultBackOff,
		Log:        log,
	}
}

// Run joins the board room and applies incoming events until ctx is done.
// A dropped connection is retried with backoff; once the attempts run out Run
// returns ErrReconnectExhausted. After every successful rejoin the view is
// re-fetched, since events sent while disconnected are lost. Run stops with
// ErrJoinRejected or ErrAccessRevoked when the server refuses or ends the room.
func (s *Subscriber) Run(ctx context.Context) error {
	bo := backoff.WithContext(s.NewBackOff(), ctx)
	everJoined := false

	for {
		joined, err := s.session(ctx, everJoined)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrJoinRejected) || errors.Is(err, ErrAccessRevoked) {
			return err
		}
		if joined {
			everJoined = true
			bo.Reset()
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
		}
		s.Log.WithError(err).WithFields(logrus.Fields{
			"board_id": s.View.BoardID(),
			"retry_in": wait.String(),
		}).Warn("realtime connection lost")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session runs one connection. joined reports whether the room was entered.
func (s *Subscriber) session(ctx context.Context, refetch bool) (joined bool, err error) {
	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}
	conn, _, err := s.Dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	join, err := sonic.Marshal(map[string]string{
		"type":    "join-board",
		"boardId": s.View.BoardID().String(),
	})
	if err != nil {
		return false, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return false, err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return joined, err
		}
		var f Event
		if err := sonic.Unmarshal(data, &f); err != nil {
			s.Log.WithError(err).Warn("skipping malformed realtime frame")
			continue
		}

		switch f.Type {
		case "joined-board":
			joined = true
			if refetch {
				if err := s.View.Load(ctx); err != nil {
					return joined, err
				}
			}
		case "left-board":
			// never requested by the subscriber
			return joined, ErrAccessRevoked
		case "error":
			if !joined {
				return false, fmt.Errorf("%w: %s", ErrJoinRejected, string(f.Data))
			}
			s.Log.WithField("data", string(f.Data)).Warn("realtime error frame")
		default:
			if err := s.View.Apply(f); err != nil {
				s.Log.WithError(err).WithField("event", f.Type).Warn("could not apply realtime event")
			}
		}
	}
}
