package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CrashBytes/cloudflare-monitor/internal/api/common"
	"github.com/CrashBytes/cloudflare-monitor/internal/events"
)

// streamEvents handles GET /api/v1/events as a Server-Sent-Events stream.
// The optional topics query parameter is a comma-separated list; none subscribes to everything.
func (rr *Routes) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		common.WriteErrorResponse(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := rr.hub.Subscribe(common.QueryList(r, "topics"))
	switch {
	case errors.Is(err, events.ErrCapacityReached):
		w.Header().Set("Retry-After", "30")
		common.WriteErrorResponse(w, "Too many event subscribers", http.StatusServiceUnavailable)
		return
	case errors.Is(err, events.ErrHubStopped):
		common.WriteErrorResponse(w, "Event stream is shutting down", http.StatusServiceUnavailable)
		return
	case err != nil:
		slog.Error("Failed to subscribe to events", "error", err)
		common.WriteErrorResponse(w, "Failed to subscribe to events", http.StatusInternalServerError)
		return
	}
	defer rr.hub.Unsubscribe(sub.ID)

	// the server write timeout would otherwise cut the stream
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil &&
		!errors.Is(err, http.ErrNotSupported) {
		slog.Debug("Failed to clear write deadline", "client_id", sub.ID, "error", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Debug("Event stream opened", "client_id", sub.ID, "topics", sub.Topics)

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Event stream closed by client", "client_id", sub.ID)
			return
		case m, ok := <-sub.C:
			if !ok {
				// removed by the hub: stale, too slow, or shutting down
				return
			}
			if err := writeEvent(w, m); err != nil {
				slog.Debug("Failed to write event", "client_id", sub.ID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE frame: the event name and the JSON envelope as data
func writeEvent(w http.ResponseWriter, m events.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", m.Event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Event, data)
	return err
}
