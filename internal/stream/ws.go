package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler streams hub events for one ticker to websocket clients.
type WSHandler struct {
	hub     *Hub
	ticker  string
	initial func() (Event, bool)
	logger  zerolog.Logger
}

// NewWSHandler creates a handler. initial, when set, supplies the event sent
// to each client right after it connects.
func NewWSHandler(hub *Hub, ticker string, initial func() (Event, bool), logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		ticker:  ticker,
		initial: initial,
		logger:  logger.With().Str("component", "ws").Logger(),
	}
}

// ServeHTTP upgrades the request and pumps events until either side closes.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	clientID := uuid.NewString()
	events := h.hub.SubscribeWithID(h.ticker, clientID)
	log := h.logger.With().Str("client_id", clientID).Logger()
	log.Info().Int("clients", h.hub.SubscriberCount(h.ticker)).Msg("Client connected")

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, events, done, log)

	h.hub.Unsubscribe(h.ticker, events)
	conn.Close()
	log.Info().Msg("Client disconnected")
}

// readPump drains client frames so control messages are processed; it
// closes done when the connection fails.
func (h *WSHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Msg("Unexpected close")
			}
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, events <-chan Event, done <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if h.initial != nil {
		if ev, ok := h.initial(); ok {
			if err := writeEvent(conn, ev); err != nil {
				log.Debug().Err(err).Msg("Initial write failed")
				return
			}
		}
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
