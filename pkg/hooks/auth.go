package hooks

import (
	"bytes"
	"slices"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"

	"github.com/kabili207/device-dashboard/pkg/auth"
)

// AuthHookOptions contains the credentials accepted by the embedded broker.
type AuthHookOptions struct {
	Username     string
	PasswordHash string
	Salt         string
	// OpenTopics may be subscribed to by clients that connect without a
	// username.
	OpenTopics []string
}

// AuthHook authenticates subscribers of the embedded broker. The dashboard
// is the only publisher; every client-initiated write is denied.
type AuthHook struct {
	mqtt.HookBase
	config *AuthHookOptions
}

// ID returns the unique identifier for this hook.
func (h *AuthHook) ID() string {
	return "dashboard-auth"
}

// Provides indicates which MQTT events this hook handles.
func (h *AuthHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnConnectAuthenticate,
		mqtt.OnACLCheck,
	}, []byte{b})
}

// Init initializes the hook with the provided configuration.
func (h *AuthHook) Init(config any) error {
	opts, ok := config.(*AuthHookOptions)
	if config != nil && !ok {
		return mqtt.ErrInvalidConfigType
	}
	if opts == nil {
		opts = &AuthHookOptions{}
	}
	h.config = opts
	return nil
}

// anonymous reports whether the broker runs without credentials.
func (h *AuthHook) anonymous() bool {
	return h.config.Username == ""
}

// OnConnectAuthenticate accepts the configured user, and clients without a
// username when open topics are configured.
func (h *AuthHook) OnConnectAuthenticate(cl *mqtt.Client, pk packets.Packet) bool {
	if h.anonymous() {
		return true
	}

	user := string(pk.Connect.Username)
	if user == "" {
		return len(h.config.OpenTopics) > 0
	}
	if user != h.config.Username {
		h.Log.Warn("rejected mqtt client", "hook", h.ID(), "client", cl.ID, "user", user)
		return false
	}
	if !auth.VerifyPassword(string(pk.Connect.Password), h.config.Salt, h.config.PasswordHash) {
		h.Log.Warn("bad mqtt password", "hook", h.ID(), "client", cl.ID, "user", user)
		return false
	}
	return true
}

// OnACLCheck denies all client writes. Reads are open to authenticated
// clients, and to anonymous ones for the open topics.
func (h *AuthHook) OnACLCheck(cl *mqtt.Client, topic string, write bool) bool {
	if cl.Net.Inline {
		return true
	}
	if write {
		return false
	}
	if h.anonymous() || string(cl.Properties.Username) == h.config.Username {
		return true
	}
	return slices.Contains(h.config.OpenTopics, topic)
}
