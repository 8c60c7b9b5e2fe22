package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kabili207/device-dashboard/pkg/models"
)

var (
	// ErrUnknownDevice is returned when an action names a board that is not
	// in the current roster.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrEmptyHost is returned when the API server host is set to nothing.
	ErrEmptyHost = errors.New("server host must not be empty")
)

// Inventory is the API server holding the device roster and motion events.
type Inventory interface {
	GetDevices(ctx context.Context, host string) ([]models.Device, error)
	GetEvents(ctx context.Context, host string) ([]models.MotionEvent, error)
}

// Boards reaches the firmware HTTP endpoints of individual boards.
type Boards interface {
	GetStatus(ctx context.Context, ip string) (string, error)
	ToggleLED(ctx context.Context, ip string) (string, error)
}

// Options tunes the polling cadence.
type Options struct {
	// PollInterval is the period of the roster and event fetches.
	PollInterval time.Duration
	// StatusInterval is the period of the per-board status polls.
	StatusInterval time.Duration
	// RequestTimeout bounds every individual request.
	RequestTimeout time.Duration
}

// DefaultOptions matches the cadence of the firmware fleet.
var DefaultOptions = Options{
	PollInterval:   30 * time.Second,
	StatusInterval: 30 * time.Second,
	RequestTimeout: 10 * time.Second,
}

// Dashboard runs the polling loops feeding a State and dispatches user
// actions against the boards.
type Dashboard struct {
	state     *State
	inventory Inventory
	boards    Boards
	opts      Options
	log       *slog.Logger

	hostChanged   chan struct{}
	rosterChanged chan struct{}

	// tracks in-flight requests so Run can wait for them on shutdown
	inflight sync.WaitGroup
	now      func() time.Time
}

// New creates a dashboard around state. Zero option fields fall back to
// DefaultOptions.
func New(state *State, inventory Inventory, boards Boards, opts Options) *Dashboard {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions.PollInterval
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultOptions.StatusInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultOptions.RequestTimeout
	}

	d := &Dashboard{
		state:         state,
		inventory:     inventory,
		boards:        boards,
		opts:          opts,
		log:           slog.Default().With("component", "dashboard"),
		hostChanged:   make(chan struct{}, 1),
		rosterChanged: make(chan struct{}, 1),
		now:           time.Now,
	}
	state.OnChange(func(c Change) {
		if c.Kind == ChangeDevices {
			signal(d.rosterChanged)
		}
	})
	return d
}

// State returns the state the dashboard feeds.
func (d *Dashboard) State() *State {
	return d.state
}

// signal performs a non-blocking send; a pending signal already covers the
// new one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled, then waits for in-flight requests.
func (d *Dashboard) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.fetchLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		d.statusLoop(ctx)
	}()
	wg.Wait()
	d.inflight.Wait()
	return ctx.Err()
}

// SetHost points the dashboard at a different API server. The fetch loop
// restarts immediately and in-flight fetches against the old host are
// cancelled.
func (d *Dashboard) SetHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return ErrEmptyHost
	}
	gen := d.state.SetHost(host)
	d.log.Info("server host changed", "host", host, "generation", gen)
	signal(d.hostChanged)
	return nil
}

// Toggle asks board to flip its LED and records the answer, or the error,
// as the board's toggle response.
func (d *Dashboard) Toggle(ctx context.Context, board string) (ToggleResponse, error) {
	device, ok := d.state.Device(board)
	if !ok {
		return ToggleResponse{}, ErrUnknownDevice
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	resp := ToggleResponse{ID: uuid.New()}
	text, err := d.boards.ToggleLED(ctx, device.IP)
	if err != nil {
		d.log.Warn("led toggle failed", "board", board, "ip", device.IP, "error", err)
		resp.Text = "Error: " + err.Error()
	} else {
		d.log.Info("led toggled", "board", board, "response", text)
		resp.Text = text
	}
	resp.At = d.now()

	d.state.SetToggle(board, resp)
	return resp, nil
}
