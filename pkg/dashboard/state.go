package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/kabili207/device-dashboard/pkg/models"
)

// OfflineStatus is recorded for a board whose status poll failed.
const OfflineStatus = "Offline"

// ChangeKind identifies which part of the state a transition touched.
type ChangeKind int

const (
	ChangeHost ChangeKind = iota
	ChangeDevices
	ChangeEvents
	ChangeError
	ChangeStatus
	ChangeToggle
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeHost:
		return "host"
	case ChangeDevices:
		return "devices"
	case ChangeEvents:
		return "events"
	case ChangeError:
		return "error"
	case ChangeStatus:
		return "status"
	case ChangeToggle:
		return "toggle"
	}
	return "unknown"
}

// Change describes a single applied transition. Board is set for status
// and toggle changes.
type Change struct {
	Kind  ChangeKind
	Board string
}

// ToggleResponse is the transient result of one LED toggle.
type ToggleResponse struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Snapshot is an immutable copy of the dashboard state.
type Snapshot struct {
	Host       string                    `json:"host"`
	Generation uint64                    `json:"generation"`
	Devices    []models.Device           `json:"devices"`
	Events     []models.MotionEvent      `json:"events"`
	Statuses   map[string]string         `json:"statuses"`
	Toggles    map[string]ToggleResponse `json:"toggles"`
	Error      string                    `json:"error,omitempty"`
}

// LiveStatus returns the polled status for board, if any.
func (s Snapshot) LiveStatus(board string) (string, bool) {
	status, ok := s.Statuses[board]
	return status, ok
}

// State owns everything the dashboard displays. It is only ever changed
// through the Apply* and Set* transitions, each of which reports whether
// it was applied and notifies listeners when it was.
type State struct {
	mu         sync.RWMutex
	host       string
	generation uint64
	devices    []models.Device
	events     []models.MotionEvent
	lastError  string

	statuses   map[string]string
	appliedSeq map[string]uint64
	statusSeq  atomic.Uint64

	toggles *ttlcache.Cache[string, ToggleResponse]

	listenerLock sync.RWMutex
	listeners    []func(Change)
}

// NewState creates the state for the given initial host. Toggle responses
// expire toggleTTL after they were recorded.
func NewState(host string, toggleTTL time.Duration) *State {
	cache := ttlcache.New[string, ToggleResponse](
		ttlcache.WithTTL[string, ToggleResponse](toggleTTL),
		ttlcache.WithDisableTouchOnHit[string, ToggleResponse](),
	)
	s := &State{
		host:       host,
		generation: 1,
		devices:    []models.Device{},
		events:     []models.MotionEvent{},
		statuses:   make(map[string]string),
		appliedSeq: make(map[string]uint64),
		toggles:    cache,
	}
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, ToggleResponse]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.notify(Change{Kind: ChangeToggle, Board: item.Key()})
		}
	})
	go cache.Start()
	return s
}

// Close stops the toggle expiry loop.
func (s *State) Close() {
	s.toggles.Stop()
}

// OnChange registers fn to be called after every applied transition. fn is
// called without any state lock held and may be called concurrently.
func (s *State) OnChange(fn func(Change)) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *State) notify(c Change) {
	s.listenerLock.RLock()
	listeners := make([]func(Change), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerLock.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// Host returns the configured API server host and its fetch generation.
func (s *State) Host() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host, s.generation
}

// SetHost changes the API server host and starts a new fetch generation.
// Results from fetches started under an older generation are discarded.
func (s *State) SetHost(host string) uint64 {
	s.mu.Lock()
	s.host = host
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeHost})
	return gen
}

// ApplyDevices replaces the roster and clears the global error. Live
// statuses of boards that left the roster are dropped.
func (s *State) ApplyDevices(gen uint64, devices []models.Device) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.devices = devices
	errCleared := s.lastError != ""
	s.lastError = ""

	present := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		present[d.Board] = struct{}{}
	}
	for board := range s.statuses {
		if _, ok := present[board]; !ok {
			delete(s.statuses, board)
			delete(s.appliedSeq, board)
		}
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDevices})
	if errCleared {
		s.notify(Change{Kind: ChangeError})
	}
	return true
}

// ApplyEvents replaces the motion events and clears the global error.
func (s *State) ApplyEvents(gen uint64, events []models.MotionEvent) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.events = events
	errCleared := s.lastError != ""
	s.lastError = ""
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeEvents})
	if errCleared {
		s.notify(Change{Kind: ChangeError})
	}
	return true
}

// ApplyFetchError records a roster or event fetch failure. The previously
// fetched devices and events are kept.
func (s *State) ApplyFetchError(gen uint64, err error) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.lastError = err.Error()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeError})
	return true
}

// NextStatusSeq allocates the sequence number for a new status request.
func (s *State) NextStatusSeq() uint64 {
	return s.statusSeq.Add(1)
}

// ApplyStatus records the live status of one board. It is dropped when a
// request issued later has already been applied for that board, or when the
// board is no longer in the roster.
func (s *State) ApplyStatus(board string, seq uint64, status string) bool {
	s.mu.Lock()
	if seq <= s.appliedSeq[board] {
		s.mu.Unlock()
		return false
	}
	if _, ok := models.FindDevice(s.devices, board); !ok {
		s.mu.Unlock()
		return false
	}
	s.appliedSeq[board] = seq
	s.statuses[board] = status
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeStatus, Board: board})
	return true
}

// SetToggle records a toggle response for board, replacing any earlier one
// together with its expiry.
func (s *State) SetToggle(board string, resp ToggleResponse) {
	s.toggles.Set(board, resp, ttlcache.DefaultTTL)
	s.notify(Change{Kind: ChangeToggle, Board: board})
}

// Toggle returns the unexpired toggle response for board.
func (s *State) Toggle(board string) (ToggleResponse, bool) {
	item := s.toggles.Get(board)
	if item == nil || item.IsExpired() {
		return ToggleResponse{}, false
	}
	return item.Value(), true
}

// Device looks a board up in the current roster.
func (s *State) Device(board string) (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FindDevice(s.devices, board)
}

// Devices returns a copy of the current roster.
func (s *State) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := make([]models.Device, len(s.devices))
	copy(devices, s.devices)
	return devices
}

// Snapshot copies the whole state. Expired toggle responses are left out.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Host:       s.host,
		Generation: s.generation,
		Devices:    make([]models.Device, len(s.devices)),
		Events:     make([]models.MotionEvent, len(s.events)),
		Statuses:   make(map[string]string, len(s.statuses)),
		Toggles:    make(map[string]ToggleResponse),
		Error:      s.lastError,
	}
	copy(snap.Devices, s.devices)
	copy(snap.Events, s.events)
	for board, status := range s.statuses {
		snap.Statuses[board] = status
	}
	s.mu.RUnlock()

	for board, item := range s.toggles.Items() {
		if !item.IsExpired() {
			snap.Toggles[board] = item.Value()
		}
	}
	return snap
}
