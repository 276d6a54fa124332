package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const eventsKeepAlive = 30 * time.Second

// EventsHandler streams load and progress notifications as Server-Sent
// Events until the client disconnects.
func (api *API) EventsHandler(c *gin.Context) {
	events, cancel := api.events.Subscribe(0)
	defer cancel()

	// The stream outlives the server's write timeout. Writers that cannot
	// clear the deadline get cut off and the client reconnects.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// The first event tells the client where the dictionary stands.
	c.SSEvent("status", api.dict.Status())
	c.Writer.Flush()

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", api.now().Unix())
			return true
		}
	})
}
