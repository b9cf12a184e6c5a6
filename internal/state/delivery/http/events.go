package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tair/storefront/pkg/logger"
)

const writeWait = 5 * time.Second

// ChangeEvent tells a browser tab that a store changed and should be re-read.
type ChangeEvent struct {
	Topic string `json:"topic"`
	Key   string `json:"key"`
}

// Events handles GET /state/{ns}/events, a websocket that pushes one
// ChangeEvent per store change in the namespace. Events beyond a small
// buffer are dropped while the client is slow to read.
func (h *StateHandler) Events(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context()).Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	eventStreams.Inc()
	defer eventStreams.Dec()

	events := make(chan ChangeEvent, 16)
	unwatch := c.Watch(func(store string) {
		select {
		case events <- ChangeEvent{Topic: store, Key: c.Key(store)}:
		default:
		}
	})
	defer unwatch()

	log := logger.WithContext(r.Context())
	log.Debug().Str("namespace", c.Namespace).Msg("Change stream opened")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Debug().Str("namespace", c.Namespace).Msg("Change stream closed")
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
