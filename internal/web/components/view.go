package components

import (
	"net/url"
	"time"

	"github.com/kabili207/device-dashboard/pkg/dashboard"
	"github.com/kabili207/device-dashboard/pkg/models"
)

// ToggleURL is the endpoint toggling the LED of board.
func ToggleURL(board string) string {
	return "/api/devices/" + url.PathEscape(board) + "/led"
}

// BuildDashboard projects a snapshot onto the tables. Motion times are
// shown in loc.
func BuildDashboard(snap dashboard.Snapshot, loc *time.Location) DashboardData {
	if loc == nil {
		loc = time.UTC
	}
	data := DashboardData{
		Host:          snap.Host,
		TimeZone:      loc.String(),
		Error:         snap.Error,
		Devices:       make([]DeviceRow, 0, len(snap.Devices)),
		Events:        make([]EventRow, 0, len(snap.Events)),
		DeviceColumns: DeviceColumns,
		EventColumns:  EventColumns,
	}
	for _, d := range snap.Devices {
		data.Devices = append(data.Devices, deviceRow(snap, d))
	}
	for _, e := range snap.Events {
		data.Events = append(data.Events, EventRow{
			ID:         e.ID.OrDash(),
			Board:      dash(e.Board),
			MotionTime: e.LocalTime(loc),
		})
	}
	return data
}

func deviceRow(snap dashboard.Snapshot, d models.Device) DeviceRow {
	row := DeviceRow{
		Board:           dash(d.Board),
		IP:              dash(d.IP),
		MAC:             dash(d.MAC),
		Firmware:        d.Firmware.OrDash(),
		FlashSize:       d.FlashSize.OrDash(),
		SketchSize:      d.SketchSize.OrDash(),
		FreeSketchSpace: d.FreeSketchSpace.OrDash(),
		FreeHeap:        d.FreeHeap.OrDash(),
		Uptime:          d.Uptime.OrDash(),
		RSSI:            d.RSSI.OrDash(),
		BSSID:           d.BSSID.OrDash(),
		Channel:         d.Channel.OrDash(),
		SubnetMask:      d.SubnetMask.OrDash(),
		Gateway:         d.Gateway.OrDash(),
		DNS:             d.DNS.OrDash(),
		Status:          deviceStatus(snap, d),
		LastUpdated:     d.LastUpdated.OrDash(),
		ToggleURL:       ToggleURL(d.Board),
	}
	if resp, ok := snap.Toggles[d.Board]; ok {
		row.Response = resp.Text
	}
	return row
}

// deviceStatus prefers the polled status over the one the server reported.
func deviceStatus(snap dashboard.Snapshot, d models.Device) string {
	if status, ok := snap.LiveStatus(d.Board); ok && status != "" {
		return status
	}
	if !d.Status.IsZero() {
		return d.Status.String()
	}
	return dashboard.OfflineStatus
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
