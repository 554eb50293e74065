package presence

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers hit this endpoint from the senior app and the dashboard;
	// room joins are token-gated, the origin is not the trust boundary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is one live websocket connection. joined tracks at most one room per
// role namespace.
type Conn struct {
	id     uuid.UUID
	ws     *websocket.Conn
	token  string
	send   chan []byte
	done   chan struct{}
	joined map[domain.Role]string
}

// ServeWS upgrades the request and runs the connection's pumps. The join
// credential arrives as a query parameter or bearer header; individual joins
// are verified against it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if bearer := r.Header.Get("Authorization"); len(bearer) > 7 && bearer[:7] == "Bearer " {
			token = bearer[7:]
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}

	c := &Conn{
		id:     uuid.New(),
		ws:     ws,
		token:  token,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		joined: make(map[domain.Role]string),
	}
	logger.InfoContext(r.Context(), "Client connected", "connection_id", c.id.String())

	go c.writePump()
	go c.readPump(h)
}

func (c *Conn) readPump(h *Hub) {
	defer func() {
		h.disconnected(c)
		close(c.done)
		c.ws.Close()
		logger.Info("Client disconnected", "connection_id", c.id.String())
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Websocket read error", "error", err, "connection_id", c.id.String())
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("Malformed client message", "connection_id", c.id.String())
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
