package routes

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kabili207/device-dashboard/internal/web/components"
)

// ClientNotifier provides a way to notify SSE subscribers about state changes
type ClientNotifier struct {
	subscribers map[chan struct{}]struct{}
	mu          sync.RWMutex
}

// NewClientNotifier creates a new ClientNotifier
func NewClientNotifier() *ClientNotifier {
	return &ClientNotifier{
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Subscribe adds a new subscriber that will be notified on state changes
func (cn *ClientNotifier) Subscribe() chan struct{} {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	ch := make(chan struct{}, 1)
	cn.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber
func (cn *ClientNotifier) Unsubscribe(ch chan struct{}) {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	delete(cn.subscribers, ch)
	close(ch)
}

// Notify triggers all subscribers about a change
func (cn *ClientNotifier) Notify() {
	cn.mu.RLock()
	defer cn.mu.RUnlock()
	for ch := range cn.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// Channel already has a pending notification, skip
		}
	}
}

// heartbeatInterval keeps idle connections open through proxies.
var heartbeatInterval = 30 * time.Second

// SSE endpoint for dashboard updates
func (wr *WebRouter) dashboardSSE(w http.ResponseWriter, r *http.Request) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	notifyCh := wr.ClientNotifier.Subscribe()
	defer wr.ClientNotifier.Unsubscribe(notifyCh)

	ctx := r.Context()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	sendUpdate := func() error {
		var buf bytes.Buffer
		if err := components.DashboardContent(wr.dashboardData()).Render(ctx, &buf); err != nil {
			return err
		}
		if err := writeSSEEvent(w, "dashboard-update", buf.String()); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Send initial data
	if err := sendUpdate(); err != nil {
		slog.Error("error sending initial SSE data", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-notifyCh:
			if err := sendUpdate(); err != nil {
				slog.Debug("error sending SSE update", "error", err)
				return
			}
		case <-ticker.C:
			// Send heartbeat comment to keep connection alive
			_, err := fmt.Fprintf(w, ": heartbeat\n\n")
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes data as one event, one data field per line. The
// browser joins the fields back together with newlines.
func writeSSEEvent(w io.Writer, event, data string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r", ""), "\n") {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
