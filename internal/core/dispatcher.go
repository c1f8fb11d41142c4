package core

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/proto"
)

// Message is a chat line attributed to its sender.
type Message struct {
	From string
	Text string
}

// Dispatcher formats chat lines and relays them through the registry.
//
// Delivery runs on the caller's goroutine. Each connection handler dispatches
// from its own read loop, which keeps lines from one sender in read order.
// A congested recipient stalls the dispatching handler for up to the peer
// write timeout.
type Dispatcher struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{registry: registry, log: logger}
}

// Registry returns the registry the dispatcher delivers through.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch delivers msg to every registered peer except its sender and
// returns the number of successful deliveries.
func (d *Dispatcher) Dispatch(msg Message) int {
	delivered, failures := d.registry.Broadcast(msg.From, proto.FormatChat(msg.From, msg.Text))
	for _, f := range failures {
		d.log.Warn().
			Err(f.Err).
			Str("from", msg.From).
			Str("to", f.Name).
			Str("session_id", f.Peer.ID).
			Msg("broadcast write failed")
	}
	d.log.Debug().
		Str("from", msg.From).
		Int("delivered", delivered).
		Int("failed", len(failures)).
		Msg("message dispatched")
	return delivered
}
