package components

// Alert is a one-shot message shown above the dashboard, carried across a
// redirect in the session.
type Alert struct {
	Type    string
	Message string
}

// Column counts of the two tables, used for the colspan of their empty rows.
const (
	DeviceColumns = 19
	EventColumns  = 3
)

// DeviceRow is one row of the devices table. Every field is already in its
// display form.
type DeviceRow struct {
	Board           string
	IP              string
	MAC             string
	Firmware        string
	FlashSize       string
	SketchSize      string
	FreeSketchSpace string
	FreeHeap        string
	Uptime          string
	RSSI            string
	BSSID           string
	Channel         string
	SubnetMask      string
	Gateway         string
	DNS             string
	Status          string
	LastUpdated     string
	ToggleURL       string
	Response        string
}

// EventRow is one row of the motion events table.
type EventRow struct {
	ID         string
	Board      string
	MotionTime string
}

// DashboardData holds everything the live part of the page renders. It is
// rebuilt from a state snapshot on every push.
type DashboardData struct {
	Host          string
	TimeZone      string
	Error         string
	Devices       []DeviceRow
	Events        []EventRow
	DeviceColumns int
	EventColumns  int
}

// DashboardPageData holds all data for the dashboard page
type DashboardPageData struct {
	PageTitle    string
	Dashboard    DashboardData
	Alerts       []Alert
	SSEEndpoint  string
	HostEndpoint string
}
