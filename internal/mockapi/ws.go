package mockapi

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 32 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// WebSocket message types
const (
	WSTypeHello  = "HELLO"
	WSTypeTyping = "TYPING"
	WSTypeAgent  = "AGENT_MESSAGE"
	WSTypeError  = "ERROR"
)

// WSMessage is the live-channel frame between widget and harness
type WSMessage struct {
	Type      string `json:"type"`
	VisitorID string `json:"visitorId,omitempty"`
	Body      string `json:"body,omitempty"`
}

// LiveHandler upgrades /api/chat/ws and plays the agent side of the live
// channel: it greets on HELLO and answers every typing notification with a
// short agent message, enough for the widget's presence UI to be testable.
type LiveHandler struct{}

// NewLiveHandler creates the live channel handler
func NewLiveHandler() *LiveHandler {
	return &LiveHandler{}
}

// ServeHTTP handles GET /api/chat/ws
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		reply := h.reply(msg)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
}

func (h *LiveHandler) reply(msg WSMessage) WSMessage {
	switch msg.Type {
	case WSTypeHello:
		return WSMessage{Type: WSTypeAgent, Body: "You're connected. An agent will join if you need one."}
	case WSTypeTyping:
		return WSMessage{Type: WSTypeTyping, Body: "agent"}
	default:
		return WSMessage{Type: WSTypeError, Body: "That message type isn't supported."}
	}
}
