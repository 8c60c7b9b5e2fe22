package publish

import (
	"fmt"
	"log/slog"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"

	"github.com/kabili207/device-dashboard/pkg/hooks"
)

// EmbeddedOptions configures the in-process broker.
type EmbeddedOptions struct {
	// ListenAddr is the TCP address subscribers connect to. Empty keeps
	// the broker inline only.
	ListenAddr string
	Auth       hooks.AuthHookOptions
}

// EmbeddedPublisher runs a mochi broker inside the dashboard and publishes
// through its inline client.
type EmbeddedPublisher struct {
	server *mqtt.Server
}

// NewEmbedded starts an embedded broker.
func NewEmbedded(opts EmbeddedOptions) (*EmbeddedPublisher, error) {
	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       slog.Default().With("component", "mqtt"),
	})

	authOpts := opts.Auth
	if err := server.AddHook(new(hooks.AuthHook), &authOpts); err != nil {
		return nil, fmt.Errorf("failed to add auth hook: %w", err)
	}

	if opts.ListenAddr != "" {
		tcp := listeners.NewTCP(listeners.Config{ID: "dashboard-tcp", Address: opts.ListenAddr})
		if err := server.AddListener(tcp); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", opts.ListenAddr, err)
		}
	}

	if err := server.Serve(); err != nil {
		return nil, fmt.Errorf("failed to start broker: %w", err)
	}
	slog.Info("embedded mqtt broker started", "listen_addr", opts.ListenAddr)

	return &EmbeddedPublisher{server: server}, nil
}

// Publish injects a message as the broker's inline client.
func (p *EmbeddedPublisher) Publish(topic string, payload []byte, retain bool) error {
	return p.server.Publish(topic, payload, retain, 0)
}

// Subscribe registers an inline subscription on the embedded broker.
func (p *EmbeddedPublisher) Subscribe(filter string, id int, fn mqtt.InlineSubFn) error {
	return p.server.Subscribe(filter, id, fn)
}

func (p *EmbeddedPublisher) Close() error {
	return p.server.Close()
}
