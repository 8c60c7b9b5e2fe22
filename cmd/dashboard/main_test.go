package main

import (
	"log/slog"
	"testing"

	"github.com/kabili207/device-dashboard/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := newPublisher(config.MqttSettings{Mode: config.MqttModeNone})
	if err != nil || pub != nil {
		t.Errorf("newPublisher(none) = %v, %v", pub, err)
	}
}
