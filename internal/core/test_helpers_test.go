package core

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// recorder is a goroutine-safe io.Writer that keeps everything written to it.
type recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func (r *recorder) lines() []string {
	s := strings.TrimSuffix(r.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

var errBrokenPipe = errors.New("broken pipe")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errBrokenPipe
}

func newTestPeer(id string) (*Peer, *recorder) {
	rec := &recorder{}
	return NewPeer(id, "test", rec, 0), rec
}
