package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kabili207/device-dashboard/pkg/models"
)

// GetDevices retrieves the device roster from the API server
func (c *Client) GetDevices(ctx context.Context, host string) ([]models.Device, error) {
	resp, err := c.get(ctx, host, "/api/devices", false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var devices []models.Device
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&devices); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if devices == nil {
		devices = []models.Device{}
	}

	return devices, nil
}

// GetEvents retrieves the motion events from the API server
func (c *Client) GetEvents(ctx context.Context, host string) ([]models.MotionEvent, error) {
	resp, err := c.get(ctx, host, "/api/events", false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var events []models.MotionEvent
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if events == nil {
		events = []models.MotionEvent{}
	}

	return events, nil
}
