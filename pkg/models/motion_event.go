package models

import (
	"encoding/json"
	"strings"
	"time"
)

// MotionEventTimeLayout is the en-US locale rendering used for motion times.
const MotionEventTimeLayout = "1/2/2006, 3:04:05 PM"

// naive layouts the API server is known to emit, without a zone
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// MotionEvent is one motion detection reported by a board.
type MotionEvent struct {
	ID         Value  `json:"id"`
	Board      string `json:"board"`
	MotionTime string `json:"motion_time"`
}

// UnmarshalJSON accepts a numeric board name.
func (e *MotionEvent) UnmarshalJSON(data []byte) error {
	type plain MotionEvent
	aux := struct {
		*plain
		Board Value `json:"board"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Board = aux.Board.String()
	return nil
}

// Time parses MotionTime. The server stores it without a zone and it is
// taken to be UTC. Timestamps that do carry a zone are honoured.
func (e MotionEvent) Time() (time.Time, bool) {
	s := strings.TrimSpace(e.MotionTime)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// LocalTime renders the motion time converted to loc. Unparsable times are
// returned as received.
func (e MotionEvent) LocalTime(loc *time.Location) string {
	t, ok := e.Time()
	if !ok {
		return e.MotionTime
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(MotionEventTimeLayout)
}
