package publish

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/kabili207/device-dashboard/pkg/dashboard"
	"github.com/kabili207/device-dashboard/pkg/models"
)

// Publisher delivers a payload to an MQTT topic.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
	Close() error
}

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// topicSegment makes s safe to use as a single topic level.
func topicSegment(s string) string {
	if s == "" {
		return "_"
	}
	return topicReplacer.Replace(s)
}

// StatePublisher mirrors dashboard state changes onto MQTT topics below a
// root topic.
type StatePublisher struct {
	pub        Publisher
	root       string
	state      *dashboard.State
	mu         sync.Mutex
	lastStatus map[string]string
	log        *slog.Logger
}

// NewStatePublisher creates a publisher for state and subscribes it to
// state changes.
func NewStatePublisher(pub Publisher, root string, state *dashboard.State) *StatePublisher {
	sp := &StatePublisher{
		pub:        pub,
		root:       strings.TrimRight(root, "/"),
		state:      state,
		lastStatus: make(map[string]string),
		log:        slog.Default().With("component", "publisher"),
	}
	state.OnChange(sp.Handle)
	return sp
}

// Topic joins levels below the root topic.
func (sp *StatePublisher) Topic(levels ...string) string {
	return sp.root + "/" + strings.Join(levels, "/")
}

// Handle publishes whatever part of the state c touched.
func (sp *StatePublisher) Handle(c dashboard.Change) {
	switch c.Kind {
	case dashboard.ChangeHost:
		host, _ := sp.state.Host()
		sp.publish(sp.Topic("host"), []byte(host), true)
	case dashboard.ChangeDevices:
		devices := sp.state.Snapshot().Devices
		sp.forgetRemoved(devices)
		sp.publishJSON(sp.Topic("devices"), devices)
	case dashboard.ChangeEvents:
		sp.publishJSON(sp.Topic("events"), sp.state.Snapshot().Events)
	case dashboard.ChangeError:
		sp.publish(sp.Topic("error"), []byte(sp.state.Snapshot().Error), true)
	case dashboard.ChangeStatus:
		status, ok := sp.state.Snapshot().LiveStatus(c.Board)
		if !ok {
			return
		}
		sp.mu.Lock()
		unchanged := sp.lastStatus[c.Board] == status
		sp.lastStatus[c.Board] = status
		sp.mu.Unlock()
		if unchanged {
			return
		}
		sp.publish(sp.Topic("device", topicSegment(c.Board), "status"), []byte(status), true)
	case dashboard.ChangeToggle:
		resp, ok := sp.state.Toggle(c.Board)
		if !ok {
			return
		}
		sp.publish(sp.Topic("device", topicSegment(c.Board), "led"), []byte(resp.Text), false)
	}
}

// forgetRemoved drops the last published status of boards that left the
// roster, so a returning board gets its status published again.
func (sp *StatePublisher) forgetRemoved(devices []models.Device) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for board := range sp.lastStatus {
		if _, ok := models.FindDevice(devices, board); !ok {
			delete(sp.lastStatus, board)
		}
	}
}

func (sp *StatePublisher) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		sp.log.Error("failed to encode state", "topic", topic, "error", err)
		return
	}
	sp.publish(topic, payload, true)
}

func (sp *StatePublisher) publish(topic string, payload []byte, retain bool) {
	if err := sp.pub.Publish(topic, payload, retain); err != nil {
		sp.log.Warn("failed to publish", "topic", topic, "error", err)
	}
}
