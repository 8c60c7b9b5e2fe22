package publish

import (
	"testing"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"

	"github.com/kabili207/device-dashboard/pkg/models"
)

func TestEmbeddedPublisherDeliversState(t *testing.T) {
	pub, err := NewEmbedded(EmbeddedOptions{})
	if err != nil {
		t.Fatalf("NewEmbedded() error = %v", err)
	}
	defer pub.Close()

	received := make(chan packets.Packet, 8)
	err = pub.Subscribe("dashboard/devices", 1, func(cl *mqtt.Client, sub packets.Subscription, pk packets.Packet) {
		received <- pk
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	state := newTestState(t)
	NewStatePublisher(pub, "dashboard", state)
	_, gen := state.Host()
	state.ApplyDevices(gen, []models.Device{{Board: "A", IP: "10.0.0.1"}})

	select {
	case pk := <-received:
		if pk.TopicName != "dashboard/devices" {
			t.Errorf("topic = %q", pk.TopicName)
		}
		if len(pk.Payload) == 0 || pk.Payload[0] != '[' {
			t.Errorf("payload = %q, want a JSON array", pk.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered by the embedded broker")
	}
}
