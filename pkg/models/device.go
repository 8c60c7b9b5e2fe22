package models

import "encoding/json"

// Device is one board in the inventory reported by the API server. The
// roster is replaced wholesale on every successful fetch and never
// mutated locally.
type Device struct {
	Board string `json:"board"`
	IP    string `json:"ip"`
	MAC   string `json:"mac"`

	BSSID      Value `json:"bssid"`
	Channel    Value `json:"channel"`
	SubnetMask Value `json:"subnet_mask"`
	Gateway    Value `json:"gateway"`
	DNS        Value `json:"dns"`
	RSSI       Value `json:"rssi"`

	Firmware        Value `json:"firmware"`
	FlashSize       Value `json:"flash_size"`
	SketchSize      Value `json:"sketch_size"`
	FreeSketchSpace Value `json:"free_sketch_space"`
	FreeHeap        Value `json:"free_heap"`
	Uptime          Value `json:"uptime"`

	// Status is the status last reported to the API server, not the live
	// status polled from the board itself.
	Status      Value `json:"status"`
	LastUpdated Value `json:"last_updated"`
}

// UnmarshalJSON accepts numeric identity fields, some boards report their
// board name as a number.
func (d *Device) UnmarshalJSON(data []byte) error {
	type plain Device
	aux := struct {
		*plain
		Board Value `json:"board"`
		IP    Value `json:"ip"`
		MAC   Value `json:"mac"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Board = aux.Board.String()
	d.IP = aux.IP.String()
	d.MAC = aux.MAC.String()
	return nil
}

// FindDevice returns the first device in the roster with the given board.
func FindDevice(devices []Device, board string) (Device, bool) {
	for _, d := range devices {
		if d.Board == board {
			return d, true
		}
	}
	return Device{}, false
}
