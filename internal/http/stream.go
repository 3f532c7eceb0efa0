package http

import (
	"io"
	"log"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"echoboard/internal/events"
)

// sessionBuffer is how many events a stream session can fall behind before
// newer events are dropped for it. There is no backpressure signal; a
// subscriber that cannot keep up misses events rather than stalling the
// publisher.
const sessionBuffer = 64

// StreamEvents upgrades the request into a long-lived server-sent-events
// push channel. The session subscribes to all three event kinds, frames
// each as an SSE message and flushes it immediately. The only exit is
// client disconnect, at which point every subscription is cancelled; that
// cancellation is what keeps dead handlers from piling up in the hub.
func (e *Env) StreamEvents(c *gin.Context) {
	sessionID := uuid.NewString()

	ch := make(chan sse.Event, sessionBuffer)
	subs := make([]*events.Subscription, 0, len(events.Kinds))
	for _, kind := range events.Kinds {
		kind := kind
		subs = append(subs, e.Hub.Subscribe(kind, func(payload any) {
			// Runs on the publisher's goroutine: hand off and return, never
			// block.
			select {
			case ch <- sse.Event{Event: string(kind), Data: payload}:
			default:
				log.Printf("stream %s lagging, dropped %s event", sessionID, kind)
			}
		}))
	}
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		log.Printf("stream session %s closed", sessionID)
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Push the headers out now so the client sees the stream as
	// established before the first event arrives.
	c.Writer.Flush()

	log.Printf("stream session %s open", sessionID)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-ch:
			if err := sse.Encode(w, ev); err != nil {
				return false
			}
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
