package dashboard

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kabili207/device-dashboard/pkg/models"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *changeRecorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *changeRecorder) count(kind ChangeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState("api.local:3000", time.Minute)
	t.Cleanup(s.Close)
	return s
}

func TestApplyDevicesReplacesRosterAndClearsError(t *testing.T) {
	s := newTestState(t)
	_, gen := s.Host()

	s.ApplyFetchError(gen, errors.New("boom"))
	if s.Snapshot().Error != "boom" {
		t.Fatalf("error not recorded")
	}

	if !s.ApplyDevices(gen, []models.Device{{Board: "A"}, {Board: "B"}}) {
		t.Fatal("ApplyDevices() not applied")
	}
	snap := s.Snapshot()
	if len(snap.Devices) != 2 {
		t.Errorf("got %d devices, want 2", len(snap.Devices))
	}
	if snap.Error != "" {
		t.Errorf("error = %q, want cleared", snap.Error)
	}

	s.ApplyDevices(gen, []models.Device{{Board: "C"}})
	snap = s.Snapshot()
	if len(snap.Devices) != 1 || snap.Devices[0].Board != "C" {
		t.Errorf("roster not replaced wholesale: %+v", snap.Devices)
	}
}

func TestApplyFetchErrorKeepsPreviousData(t *testing.T) {
	s := newTestState(t)
	_, gen := s.Host()

	s.ApplyDevices(gen, []models.Device{{Board: "A"}})
	s.ApplyEvents(gen, []models.MotionEvent{{ID: models.NewValue("1"), Board: "A"}})

	s.ApplyFetchError(gen, errors.New("network response was not ok"))

	snap := s.Snapshot()
	if len(snap.Devices) != 1 || len(snap.Events) != 1 {
		t.Errorf("previous data lost: %d devices, %d events", len(snap.Devices), len(snap.Events))
	}
	if snap.Error != "network response was not ok" {
		t.Errorf("error = %q", snap.Error)
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	s := newTestState(t)
	_, oldGen := s.Host()

	newGen := s.SetHost("other.local:3000")
	if newGen == oldGen {
		t.Fatal("SetHost() did not bump the generation")
	}

	if s.ApplyDevices(oldGen, []models.Device{{Board: "stale"}}) {
		t.Error("stale ApplyDevices() applied")
	}
	if s.ApplyEvents(oldGen, []models.MotionEvent{{Board: "stale"}}) {
		t.Error("stale ApplyEvents() applied")
	}
	if s.ApplyFetchError(oldGen, errors.New("stale")) {
		t.Error("stale ApplyFetchError() applied")
	}

	snap := s.Snapshot()
	if len(snap.Devices) != 0 || len(snap.Events) != 0 || snap.Error != "" {
		t.Errorf("stale results leaked into state: %+v", snap)
	}
	if snap.Host != "other.local:3000" {
		t.Errorf("host = %q", snap.Host)
	}
}

func TestApplyStatusOrdering(t *testing.T) {
	s := newTestState(t)
	_, gen := s.Host()
	s.ApplyDevices(gen, []models.Device{{Board: "A"}, {Board: "B"}})

	first := s.NextStatusSeq()
	second := s.NextStatusSeq()

	if !s.ApplyStatus("A", second, "OK") {
		t.Fatal("newer status not applied")
	}
	if s.ApplyStatus("A", first, OfflineStatus) {
		t.Error("older status overwrote a newer one")
	}
	if !s.ApplyStatus("B", first, OfflineStatus) {
		t.Error("sequence of one board blocked another board")
	}

	snap := s.Snapshot()
	if snap.Statuses["A"] != "OK" || snap.Statuses["B"] != OfflineStatus {
		t.Errorf("statuses = %v", snap.Statuses)
	}
}

func TestApplyStatusUnknownBoard(t *testing.T) {
	s := newTestState(t)
	_, gen := s.Host()
	s.ApplyDevices(gen, []models.Device{{Board: "A"}})

	if s.ApplyStatus("ghost", s.NextStatusSeq(), "OK") {
		t.Error("status for a board outside the roster was applied")
	}
}

func TestRosterChangePrunesStatuses(t *testing.T) {
	s := newTestState(t)
	_, gen := s.Host()
	s.ApplyDevices(gen, []models.Device{{Board: "A"}, {Board: "B"}})
	s.ApplyStatus("A", s.NextStatusSeq(), "OK")
	s.ApplyStatus("B", s.NextStatusSeq(), "OK")

	s.ApplyDevices(gen, []models.Device{{Board: "B"}})

	snap := s.Snapshot()
	if _, ok := snap.Statuses["A"]; ok {
		t.Error("status of removed board A kept")
	}
	if snap.Statuses["B"] != "OK" {
		t.Errorf("status of B = %q, want OK", snap.Statuses["B"])
	}
}

func TestChangeNotifications(t *testing.T) {
	s := newTestState(t)
	rec := &changeRecorder{}
	s.OnChange(rec.record)
	_, gen := s.Host()

	s.ApplyDevices(gen, []models.Device{{Board: "A"}})
	s.ApplyFetchError(gen, errors.New("boom"))
	s.ApplyEvents(gen, nil)
	s.ApplyStatus("A", s.NextStatusSeq(), "OK")
	s.ApplyDevices(gen-1, nil)

	if got := rec.count(ChangeDevices); got != 1 {
		t.Errorf("device changes = %d, want 1", got)
	}
	// one for the failure, one for the clear by ApplyEvents
	if got := rec.count(ChangeError); got != 2 {
		t.Errorf("error changes = %d, want 2", got)
	}
	if got := rec.count(ChangeStatus); got != 1 {
		t.Errorf("status changes = %d, want 1", got)
	}
}

func TestToggleExpires(t *testing.T) {
	s := NewState("api.local", 50*time.Millisecond)
	defer s.Close()
	rec := &changeRecorder{}
	s.OnChange(rec.record)

	s.SetToggle("A", ToggleResponse{ID: uuid.New(), Text: "LED ON"})
	if resp, ok := s.Toggle("A"); !ok || resp.Text != "LED ON" {
		t.Fatalf("Toggle() = %+v, %v", resp, ok)
	}
	if _, ok := s.Snapshot().Toggles["A"]; !ok {
		t.Fatal("toggle missing from snapshot")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.Toggle("A"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("toggle response never expired")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, ok := s.Snapshot().Toggles["A"]; ok {
		t.Error("expired toggle still in snapshot")
	}

	deadline = time.Now().Add(2 * time.Second)
	for rec.count(ChangeToggle) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("expiry did not notify")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestToggleReplacedByNewerInvocation(t *testing.T) {
	s := newTestState(t)

	first := ToggleResponse{ID: uuid.New(), Text: "LED ON"}
	second := ToggleResponse{ID: uuid.New(), Text: "LED OFF"}
	s.SetToggle("A", first)
	s.SetToggle("A", second)

	resp, ok := s.Toggle("A")
	if !ok || resp.ID != second.ID || resp.Text != "LED OFF" {
		t.Errorf("Toggle() = %+v, want the newer invocation", resp)
	}
}
