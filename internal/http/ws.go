package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"echoboard/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Fingerprinted anonymous clients connect from anywhere; CORS policy
	// lives on the HTTP routes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame mirrors the SSE framing for websocket clients: event name plus
// JSON payload.
type wsFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ServeWS relays the same hub events the SSE stream carries onto a
// websocket connection, for clients behind proxies that buffer
// event-stream responses. Lifecycle matches StreamEvents: subscribe on
// open, cancel everything on disconnect.
func (e *Env) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()

	ch := make(chan wsFrame, sessionBuffer)
	subs := make([]*events.Subscription, 0, len(events.Kinds))
	for _, kind := range events.Kinds {
		kind := kind
		subs = append(subs, e.Hub.Subscribe(kind, func(payload any) {
			select {
			case ch <- wsFrame{Event: string(kind), Data: payload}:
			default:
				log.Printf("ws %s lagging, dropped %s event", sessionID, kind)
			}
		}))
	}
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		log.Printf("ws session %s closed", sessionID)
	}()

	// The client never sends application data; reading only detects close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("ws session %s open", sessionID)
	for {
		select {
		case frame := <-ch:
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
