package components

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kabili207/device-dashboard/pkg/dashboard"
	"github.com/kabili207/device-dashboard/pkg/models"
)

func testSnapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Host: "192.168.0.73:3000",
		Devices: []models.Device{
			{
				Board:    "kitchen",
				IP:       "10.0.0.1",
				MAC:      "AA:BB",
				Firmware: models.StringValue("1.4.2"),
				FreeHeap: models.NewValue("0"),
				RSSI:     models.NewValue("-61"),
				Status:   models.StringValue("IDLE"),
			},
			{Board: "garage", IP: "10.0.0.2", Status: models.StringValue("IDLE")},
			{Board: "attic", IP: "10.0.0.3"},
		},
		Events: []models.MotionEvent{
			{ID: models.NewValue("12"), Board: "kitchen", MotionTime: "2024-03-01T19:30:00"},
		},
		Statuses: map[string]string{"kitchen": "OK"},
		Toggles: map[string]dashboard.ToggleResponse{
			"garage": {ID: uuid.New(), Text: "LED is ON"},
		},
	}
}

func TestBuildDashboard(t *testing.T) {
	data := BuildDashboard(testSnapshot(), time.FixedZone("MST", -7*60*60))

	if len(data.Devices) != 3 {
		t.Fatalf("got %d device rows, want 3", len(data.Devices))
	}

	kitchen := data.Devices[0]
	if kitchen.Status != "OK" {
		t.Errorf("live status not preferred: %q", kitchen.Status)
	}
	if kitchen.Firmware != "1.4.2" || kitchen.RSSI != "-61" {
		t.Errorf("firmware/rssi = %q/%q", kitchen.Firmware, kitchen.RSSI)
	}
	if kitchen.FreeHeap != "-" || kitchen.BSSID != "-" {
		t.Errorf("falsy values not dashed: heap=%q bssid=%q", kitchen.FreeHeap, kitchen.BSSID)
	}
	if kitchen.ToggleURL != "/api/devices/kitchen/led" {
		t.Errorf("toggle url = %q", kitchen.ToggleURL)
	}

	if got := data.Devices[1].Status; got != "IDLE" {
		t.Errorf("server status not used as fallback: %q", got)
	}
	if got := data.Devices[1].Response; got != "LED is ON" {
		t.Errorf("toggle response = %q", got)
	}
	if got := data.Devices[2].Status; got != dashboard.OfflineStatus {
		t.Errorf("status without any report = %q, want Offline", got)
	}

	if len(data.Events) != 1 {
		t.Fatalf("got %d event rows, want 1", len(data.Events))
	}
	if got := data.Events[0].MotionTime; got != "3/1/2024, 12:30:00 PM" {
		t.Errorf("motion time = %q", got)
	}
	if data.DeviceColumns != 19 || data.EventColumns != 3 {
		t.Errorf("column counts = %d/%d", data.DeviceColumns, data.EventColumns)
	}
}

func TestToggleURLEscapesBoard(t *testing.T) {
	if got := ToggleURL("shed/1"); got != "/api/devices/shed%2F1/led" {
		t.Errorf("ToggleURL() = %q", got)
	}
}

func render(t *testing.T, data DashboardData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := DashboardContent(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestDashboardContentEmpty(t *testing.T) {
	out := render(t, BuildDashboard(dashboard.Snapshot{Host: "api"}, time.UTC))

	for _, want := range []string{
		`<td colspan="19" class="empty">No devices found.</td>`,
		`<td colspan="3" class="empty">No motion events found.</td>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `class="error"`) {
		t.Error("error banner rendered without an error")
	}
}

func TestDashboardContentRows(t *testing.T) {
	snap := testSnapshot()
	snap.Error = "network response was not ok"
	out := render(t, BuildDashboard(snap, time.UTC))

	for _, want := range []string{
		"network response was not ok",
		`<tr data-board="kitchen">`,
		`action="/api/devices/garage/led"`,
		"LED is ON",
		`class="status-offline"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "No devices found.") {
		t.Error("empty row rendered alongside devices")
	}
}

func TestDashboardPage(t *testing.T) {
	var buf bytes.Buffer
	page := DashboardPageData{
		PageTitle:    "Device Dashboard",
		Dashboard:    BuildDashboard(dashboard.Snapshot{Host: "api"}, time.UTC),
		Alerts:       []Alert{{Type: "success", Message: "Server host updated"}},
		SSEEndpoint:  "/api/dashboard-sse",
		HostEndpoint: "/api/host",
	}
	if err := DashboardPage(page).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`data-sse="/api/dashboard-sse"`,
		`value="api"`,
		"Server host updated",
		`<div id="dashboard">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
