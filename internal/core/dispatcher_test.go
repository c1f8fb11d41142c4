package core

import (
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/vovakirdan/linechat/internal/proto"
)

func TestDispatchFormatsAndExcludesSender(t *testing.T) {
	reg := NewRegistry()
	a, aOut := newTestPeer("a")
	b, bOut := newTestPeer("b")
	_ = reg.Register("A", a)
	_ = reg.Register("B", b)

	d := NewDispatcher(reg, nil)
	if n := d.Dispatch(Message{From: "A", Text: "hello"}); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}

	if got := bOut.String(); got != "[A]: hello\n" {
		t.Fatalf("unexpected line for B: %q", got)
	}
	if got := aOut.String(); got != "" {
		t.Fatalf("A received its own message: %q", got)
	}
}

func TestDispatchPreservesPerSenderOrder(t *testing.T) {
	reg := NewRegistry()
	recv, out := newTestPeer("r")
	_ = reg.Register("R", recv)
	for _, name := range []string{"S1", "S2", "S3"} {
		p, _ := newTestPeer(name)
		_ = reg.Register(name, p)
	}

	d := NewDispatcher(reg, nil)
	const perSender = 200

	var wg sync.WaitGroup
	for _, sender := range []string{"S1", "S2", "S3"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				d.Dispatch(Message{From: sender, Text: fmt.Sprint(i)})
			}
		}(sender)
	}
	wg.Wait()

	next := map[string]int{}
	lines := out.lines()
	if len(lines) != 3*perSender {
		t.Fatalf("expected %d lines, got %d", 3*perSender, len(lines))
	}
	for _, line := range lines {
		sender, text, ok := proto.ParseChat(line)
		if !ok {
			t.Fatalf("unparsable line %q", line)
		}
		seq, err := strconv.Atoi(text)
		if err != nil {
			t.Fatalf("unexpected text in %q: %v", line, err)
		}
		if seq != next[sender] {
			t.Fatalf("sender %s out of order: got %d, want %d", sender, seq, next[sender])
		}
		next[sender]++
	}
}
