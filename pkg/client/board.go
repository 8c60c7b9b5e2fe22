package client

import "context"

// GetStatus polls a board's own /status endpoint and returns the raw body.
func (c *Client) GetStatus(ctx context.Context, ip string) (string, error) {
	resp, err := c.get(ctx, ip, "/status", false)
	if err != nil {
		return "", err
	}
	return c.readText(resp)
}

// ToggleLED asks a board to flip its LED. Whatever the firmware answers is
// returned, including bodies sent with an error status; only transport
// failures are errors.
func (c *Client) ToggleLED(ctx context.Context, ip string) (string, error) {
	resp, err := c.get(ctx, ip, "/led", true)
	if err != nil {
		return "", err
	}
	return c.readText(resp)
}
