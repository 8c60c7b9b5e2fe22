package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kabili207/device-dashboard/pkg/models"
	"golang.org/x/sync/errgroup"
)

// fetchLoop fetches the roster and the events immediately and then every
// PollInterval. A host change restarts the loop under a new generation and
// cancels whatever the previous generation still has in flight.
func (d *Dashboard) fetchLoop(ctx context.Context) {
	for {
		host, gen := d.state.Host()
		genCtx, cancel := context.WithCancel(ctx)

		ticker := time.NewTicker(d.opts.PollInterval)
		d.fetchAll(genCtx, host, gen)

		restart := false
		for !restart {
			select {
			case <-ctx.Done():
				ticker.Stop()
				cancel()
				return
			case <-d.hostChanged:
				restart = true
			case <-ticker.C:
				d.fetchAll(genCtx, host, gen)
			}
		}
		ticker.Stop()
		cancel()
	}
}

// fetchAll fires the roster and event fetches without waiting for them.
func (d *Dashboard) fetchAll(ctx context.Context, host string, gen uint64) {
	d.inflight.Add(2)
	go func() {
		defer d.inflight.Done()
		d.fetchDevices(ctx, host, gen)
	}()
	go func() {
		defer d.inflight.Done()
		d.fetchEvents(ctx, host, gen)
	}()
}

func (d *Dashboard) fetchDevices(ctx context.Context, host string, gen uint64) {
	reqCtx, cancel := context.WithTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	devices, err := d.inventory.GetDevices(reqCtx, host)
	if ctx.Err() != nil {
		// host changed or shutting down
		return
	}
	if err != nil {
		if d.state.ApplyFetchError(gen, err) {
			d.log.Warn("device fetch failed", "host", host, "error", err)
		}
		return
	}
	if d.state.ApplyDevices(gen, devices) {
		d.log.Debug("devices fetched", "host", host, "count", len(devices))
	} else {
		d.log.Debug("discarding stale device fetch", "host", host, "generation", gen)
	}
}

func (d *Dashboard) fetchEvents(ctx context.Context, host string, gen uint64) {
	reqCtx, cancel := context.WithTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	events, err := d.inventory.GetEvents(reqCtx, host)
	if ctx.Err() != nil {
		// host changed or shutting down
		return
	}
	if err != nil {
		if d.state.ApplyFetchError(gen, err) {
			d.log.Warn("event fetch failed", "host", host, "error", err)
		}
		return
	}
	if d.state.ApplyEvents(gen, events) {
		d.log.Debug("events fetched", "host", host, "count", len(events))
	} else {
		d.log.Debug("discarding stale event fetch", "host", host, "generation", gen)
	}
}

// statusLoop polls every board in the roster immediately and then every
// StatusInterval. Each roster replacement starts a fresh cycle and resets
// the interval.
func (d *Dashboard) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(d.opts.StatusInterval)
	defer ticker.Stop()

	d.pollStatuses(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.rosterChanged:
			ticker.Reset(d.opts.StatusInterval)
			d.pollStatuses(ctx)
		case <-ticker.C:
			d.pollStatuses(ctx)
		}
	}
}

// pollStatuses fans out one status request per board with no concurrency
// cap and returns without waiting for them.
func (d *Dashboard) pollStatuses(ctx context.Context) {
	devices := d.state.Devices()
	if len(devices) == 0 {
		return
	}

	var g errgroup.Group
	var offline atomic.Int32
	for _, device := range devices {
		seq := d.state.NextStatusSeq()
		g.Go(func() error {
			if !d.pollStatus(ctx, device, seq) {
				offline.Add(1)
			}
			return nil
		})
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		g.Wait()
		d.log.Debug("status poll cycle complete", "devices", len(devices), "offline", offline.Load())
	}()
}

// pollStatus records the live status of one board. It reports whether the
// board answered.
func (d *Dashboard) pollStatus(ctx context.Context, device models.Device, seq uint64) bool {
	reqCtx, cancel := context.WithTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	status, err := d.boards.GetStatus(reqCtx, device.IP)
	if ctx.Err() != nil {
		// shutting down, the result no longer matters
		return err == nil
	}
	if err != nil {
		d.log.Debug("status poll failed", "board", device.Board, "ip", device.IP, "error", err)
		status = OfflineStatus
	}
	d.state.ApplyStatus(device.Board, seq, status)
	return err == nil
}
