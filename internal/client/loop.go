package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/proto"
)

const (
	// DefaultReadBufSize is the fixed socket read buffer.
	DefaultReadBufSize = 512

	renameHint = "Username rejected. Choose another with 'name <USERNAME>'"
)

// Options configures a Loop.
type Options struct {
	Username string
	// ReadBufSize is the size of the fixed socket read buffer.
	ReadBufSize int
	// WriteWait bounds one write attempt. Hitting it is treated as would-block
	// on TCP. Conns that close themselves on an expired deadline (websocket.NetConn)
	// need a WriteWait long enough never to fire in practice.
	WriteWait time.Duration
	// RetryInterval is the pause before retrying a write that would block.
	RetryInterval time.Duration
}

type readResult struct {
	data []byte
	err  error
}

// Loop is the client reactor. One goroutine (Run) owns the session state, the
// send buffer and every write to the socket. Two feeder goroutines block on the
// socket and the terminal and hand results over channels, so the only place
// Run suspends is its select.
type Loop struct {
	conn net.Conn
	term io.Reader
	out  io.Writer
	log  *zerolog.Logger
	opts Options

	state       State
	buf         SendBuffer
	lines       lineSplitter
	namePending int
	rejected    bool
}

// New builds a loop over an established connection. term supplies operator
// commands and out receives chat output.
func New(conn net.Conn, term io.Reader, out io.Writer, opts Options, logger *zerolog.Logger) *Loop {
	if opts.ReadBufSize <= 0 {
		opts.ReadBufSize = DefaultReadBufSize
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 50 * time.Millisecond
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 20 * time.Millisecond
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Loop{
		conn:  conn,
		term:  term,
		out:   out,
		log:   logger,
		opts:  opts,
		state: StateConnecting,
	}
}

// State returns the session state. Call it only after Run has returned.
func (l *Loop) State() State {
	return l.state
}

// Run drives the session until leave, peer close, ctx cancellation or a fatal
// transport error. Only the last one yields a non-nil error.
//
// The terminal feeder cannot be interrupted while blocked in Read; it exits
// on the next line or when term is closed.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if l.opts.Username == "" {
		l.state = StateDisconnected
		return errors.New("client: username is empty")
	}

	socket := make(chan readResult)
	terminal := make(chan string)
	go l.readSocket(ctx, socket)
	go l.readTerminal(ctx, terminal)

	// A freshly connected socket is writable: queue the username first.
	l.queueUsername(l.opts.Username)

	var retry <-chan time.Time
	for {
		if l.buf.Len() > 0 && retry == nil {
			blocked, err := l.flush()
			if err != nil {
				l.state = StateDisconnected
				return fmt.Errorf("write to server: %w", err)
			}
			if blocked {
				retry = time.After(l.opts.RetryInterval)
			}
		}

		select {
		case <-ctx.Done():
			l.state = StateDisconnected
			return nil

		case <-retry:
			retry = nil

		case res := <-socket:
			done, err := l.handleSocket(res)
			if done {
				l.state = StateDisconnected
				return err
			}

		case line, ok := <-terminal:
			if !ok {
				l.log.Debug().Msg("terminal closed")
				l.leave()
				return nil
			}
			if l.handleTerminal(line) {
				l.leave()
				return nil
			}
		}
	}
}

func (l *Loop) queueUsername(name string) {
	line := proto.Line(name)
	l.buf.Enqueue(line)
	l.namePending += len(line)
	l.state = StateAwaitingUsernameSend
}

// flush makes one bounded write attempt. blocked reports that bytes remain and
// the socket made no further progress within WriteWait.
func (l *Loop) flush() (blocked bool, err error) {
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.opts.WriteWait)); err != nil {
		return false, err
	}
	defer l.conn.SetWriteDeadline(time.Time{})
	n, err := l.buf.Flush(l.conn)
	l.accountName(n)

	if err != nil {
		if isWouldBlock(err) {
			l.log.Debug().Int("written", n).Int("pending", l.buf.Len()).Msg("write would block")
			return true, nil
		}
		return false, err
	}
	// A short write without an error still leaves bytes for the next attempt.
	return l.buf.Len() > 0, nil
}

func (l *Loop) accountName(n int) {
	if l.namePending == 0 {
		return
	}
	l.namePending -= min(n, l.namePending)
	if l.namePending == 0 && !l.rejected {
		l.state = StateActive
		l.log.Debug().Str("user", l.opts.Username).Msg("username sent")
	}
}

// handleSocket reports whether the loop must stop, and with which error.
func (l *Loop) handleSocket(res readResult) (bool, error) {
	for _, line := range l.lines.feed(res.data) {
		l.printServerLine(line)
	}

	switch {
	case res.err == nil:
		return false, nil
	case isWouldBlock(res.err):
		return false, nil
	case errors.Is(res.err, io.EOF):
		if line, ok := l.lines.rest(); ok {
			l.printServerLine(line)
		}
		fmt.Fprintln(l.out, "Connection closed by server.")
		return true, nil
	default:
		return true, fmt.Errorf("read from server: %w", res.err)
	}
}

func (l *Loop) printServerLine(line string) {
	fmt.Fprintln(l.out, line)
	if proto.IsRejection(line) {
		l.rejected = true
		l.state = StateAwaitingUsernameSend
		fmt.Fprintln(l.out, renameHint)
	}
}

// handleTerminal applies one operator command and reports whether to leave.
func (l *Loop) handleTerminal(line string) bool {
	cmd := ParseCommand(line)
	switch cmd.Kind {
	case CommandLeave:
		return true
	case CommandSend:
		if l.rejected {
			fmt.Fprintln(l.out, renameHint)
			return false
		}
		l.buf.Enqueue(proto.Line(cmd.Text))
	case CommandRename:
		if !l.rejected {
			fmt.Fprintf(l.out, "Already joined as %s\n", l.opts.Username)
			return false
		}
		l.rejected = false
		l.opts.Username = cmd.Text
		l.queueUsername(cmd.Text)
	default:
		fmt.Fprintln(l.out, Usage)
	}
	return false
}

// leave queues the leave command and makes one bounded attempt to send what is pending.
// It never waits for further socket events.
func (l *Loop) leave() {
	fmt.Fprintln(l.out, "Disconnecting...")
	if l.state == StateActive {
		l.buf.Enqueue(proto.Line(proto.LeaveCommand))
		if _, err := l.flush(); err != nil {
			l.log.Debug().Err(err).Msg("final flush failed")
		}
	}
	l.state = StateDisconnected
}

func (l *Loop) readSocket(ctx context.Context, out chan<- readResult) {
	buf := make([]byte, l.opts.ReadBufSize)
	for {
		n, err := l.conn.Read(buf)
		res := readResult{data: append([]byte(nil), buf[:n]...), err: err}
		select {
		case out <- res:
		case <-ctx.Done():
			return
		}
		if err != nil && !isWouldBlock(err) {
			return
		}
	}
}

func (l *Loop) readTerminal(ctx context.Context, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(l.term)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		l.log.Warn().Err(err).Msg("terminal read failed")
	}
}

func isWouldBlock(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
