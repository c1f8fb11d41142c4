package core

import (
	"io"
	"sync"
	"time"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Peer is the outbound write handle of one connected client.
type Peer struct {
	ID   string
	Addr string

	mu           sync.Mutex
	w            io.Writer
	writeTimeout time.Duration
}

// NewPeer wraps w. When w supports write deadlines and writeTimeout is positive,
// every write is bounded by it.
func NewPeer(id, addr string, w io.Writer, writeTimeout time.Duration) *Peer {
	return &Peer{
		ID:           id,
		Addr:         addr,
		w:            w,
		writeTimeout: writeTimeout,
	}
}

// WriteLine writes one already formatted line. Concurrent calls are serialized
// so lines from different senders never interleave on the wire.
func (p *Peer) WriteLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.w.(writeDeadliner); ok && p.writeTimeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return err
		}
		defer d.SetWriteDeadline(time.Time{})
	}
	_, err := io.WriteString(p.w, line)
	return err
}
