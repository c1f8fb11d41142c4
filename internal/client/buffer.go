package client

import "io"

// SendBuffer queues outbound bytes until the socket accepts them.
// Bytes are handed out strictly in enqueue order and each byte is written once.
type SendBuffer struct {
	data []byte
	off  int
}

// Enqueue appends p to the queue.
func (b *SendBuffer) Enqueue(p []byte) {
	if b.off > 0 && b.off == len(b.data) {
		b.data = b.data[:0]
		b.off = 0
	}
	b.data = append(b.data, p...)
}

// Len returns the number of unsent bytes.
func (b *SendBuffer) Len() int {
	return len(b.data) - b.off
}

// Pending returns the unsent bytes without consuming them.
func (b *SendBuffer) Pending() []byte {
	return b.data[b.off:]
}

// Advance drops the first n unsent bytes.
func (b *SendBuffer) Advance(n int) {
	if n <= 0 {
		return
	}
	if n > b.Len() {
		n = b.Len()
	}
	b.off += n
	if b.off == len(b.data) {
		b.data = b.data[:0]
		b.off = 0
		return
	}
	// Reclaim the consumed prefix once it dominates the buffer.
	if b.off > len(b.data)/2 {
		b.data = append(b.data[:0], b.data[b.off:]...)
		b.off = 0
	}
}

// Flush makes a single write attempt and consumes whatever w accepted,
// including the accepted prefix of a short write that also returned an error.
func (b *SendBuffer) Flush(w io.Writer) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	n, err := w.Write(b.Pending())
	if n < 0 {
		n = 0
	}
	b.Advance(n)
	return n, err
}
