package publish

import (
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RemoteOptions configures the connection to an external broker.
type RemoteOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// OnlineTopic carries a retained "true" while connected and is set to
	// "false" by the broker through the will message otherwise.
	OnlineTopic string
}

// RemotePublisher publishes to an external broker with paho. Connection
// attempts are retried in the background; publishing never blocks.
type RemotePublisher struct {
	client      paho.Client
	timeout     time.Duration
	onlineTopic string
	log         *slog.Logger
}

// NewRemote creates the paho client and starts connecting.
func NewRemote(opts RemoteOptions) *RemotePublisher {
	p := &RemotePublisher{
		timeout:     10 * time.Second,
		onlineTopic: opts.OnlineTopic,
		log:         slog.Default().With("component", "mqtt", "broker", opts.Broker),
	}

	o := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}
	if opts.OnlineTopic != "" {
		o.SetWill(opts.OnlineTopic, "false", 1, true)
	}
	o.SetOnConnectHandler(func(c paho.Client) {
		p.log.Info("connected to mqtt broker")
		if opts.OnlineTopic != "" {
			c.Publish(opts.OnlineTopic, 1, true, "true")
		}
	})
	o.SetConnectionLostHandler(func(c paho.Client, err error) {
		p.log.Warn("lost connection to mqtt broker", "error", err)
	})

	p.client = paho.NewClient(o)
	p.client.Connect()
	return p
}

// Connected reports whether the client currently holds a connection.
func (p *RemotePublisher) Connected() bool {
	return p.client.IsConnectionOpen()
}

// Publish queues the message; delivery failures are only logged.
func (p *RemotePublisher) Publish(topic string, payload []byte, retain bool) error {
	token := p.client.Publish(topic, 1, retain, payload)
	go func() {
		if !token.WaitTimeout(p.timeout) {
			p.log.Warn("publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warn("publish failed", "topic", topic, "error", err)
		}
	}()
	return nil
}

// Close marks the dashboard offline and disconnects. A clean disconnect
// does not trigger the will message.
func (p *RemotePublisher) Close() error {
	if p.onlineTopic != "" && p.client.IsConnectionOpen() {
		p.client.Publish(p.onlineTopic, 1, true, "false").WaitTimeout(time.Second)
	}
	p.client.Disconnect(250)
	return nil
}
