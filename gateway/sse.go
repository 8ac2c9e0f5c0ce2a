package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"agent-hub/domain/event"
)

const defaultKeepAlive = 25 * time.Second

// ToSSE formats one domain event as a two-line server-sent-events
// frame: "event: <kind>\ndata: <json>\n\n".
func ToSSE(evt event.DomainEvent) (string, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", evt.Kind(), data), nil
}

// AttachSSEClient adapts Subscribe onto an HTTP response stream: one
// ready frame carrying the client id, a frame per matching event, and
// periodic keep-alive comments so intermediaries do not time the
// connection out. The subscription, the keep-alive timer, and the
// response are all released when the peer disconnects.
func (g *Gateway) AttachSSEClient(w http.ResponseWriter, r *http.Request, filter Filter) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := uuid.NewString()
	if _, err := fmt.Fprintf(w, "event: ready\ndata: {\"clientId\":%q}\n\n", clientID); err != nil {
		return err
	}
	flusher.Flush()

	// Frames are queued so the publisher never blocks on a slow
	// client; a client that falls 64 frames behind is dropped like any
	// other failing subscriber.
	frames := make(chan string, 64)
	unsubscribe := g.Subscribe(filter, func(evt event.DomainEvent) error {
		frame, err := ToSSE(evt)
		if err != nil {
			return err
		}
		select {
		case frames <- frame:
			return nil
		default:
			return fmt.Errorf("client %s cannot keep up", clientID)
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(defaultKeepAlive)
	defer ticker.Stop()

	g.log.Debug("sse client attached", "client", clientID, "workspace", filter.WorkspaceID, "channel", filter.ChannelID)
	for {
		select {
		case <-r.Context().Done():
			g.log.Debug("sse client disconnected", "client", clientID)
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		case frame := <-frames:
			if _, err := fmt.Fprint(w, frame); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}
