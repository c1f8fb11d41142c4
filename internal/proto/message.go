package proto

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// LeaveCommand ends a session when sent as a whole line.
	LeaveCommand = "/leave"

	// RejectTaken is sent while registering when the name is in use.
	RejectTaken = "Username is already taken"
	// RejectInvalid is sent while registering when the name fails validation.
	RejectInvalid = "Username is invalid"

	// DefaultLineMax caps a single read line in bytes.
	DefaultLineMax = 4096
	// DefaultNameMax caps a username in bytes.
	DefaultNameMax = 32
)

var (
	// ErrEmptyName is returned for names that are blank after trimming.
	ErrEmptyName = errors.New("username is empty")
	// ErrReservedName is returned for names containing the leave command.
	ErrReservedName = errors.New("username contains reserved token")
	// ErrNameTooLong is returned for names longer than the configured cap.
	ErrNameTooLong = errors.New("username is too long")
)

// ValidateUsername trims raw and checks it against naming rules.
// maxLen <= 0 disables the length check.
func ValidateUsername(raw string, maxLen int) (string, error) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return "", ErrEmptyName
	case strings.Contains(name, LeaveCommand):
		return "", ErrReservedName
	case maxLen > 0 && len(name) > maxLen:
		return "", ErrNameTooLong
	}
	return name, nil
}

// IsLeave reports whether a chat line asks to end the session.
func IsLeave(line string) bool {
	return strings.TrimSpace(line) == LeaveCommand
}

// IsRejection reports whether a server line is a registration rejection.
func IsRejection(line string) bool {
	return line == RejectTaken || line == RejectInvalid
}

// FormatChat renders a delivered chat line, newline included.
func FormatChat(sender, text string) string {
	return fmt.Sprintf("[%s]: %s\n", sender, text)
}

// ParseChat splits a delivered line back into sender and text.
func ParseChat(line string) (sender, text string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.Index(line, "]: ")
	if end < 0 {
		return "", "", false
	}
	return line[1:end], line[end+3:], true
}

// Line terminates text with a single newline.
func Line(text string) []byte {
	return []byte(strings.TrimRight(text, "\r\n") + "\n")
}

// LineReader reads newline-delimited lines with a per-line byte cap.
// A line longer than the cap is returned in pieces of about cap bytes, cut on
// rune boundaries. Truncated reports whether the last piece was cut short.
type LineReader struct {
	r         *bufio.Reader
	carry     []byte
	truncated bool
}

// NewLineReader wraps r; max <= 0 selects DefaultLineMax.
func NewLineReader(r io.Reader, max int) *LineReader {
	if max <= 0 {
		max = DefaultLineMax
	}
	// bufio enforces a 16 byte floor on its buffer size.
	return &LineReader{r: bufio.NewReaderSize(r, max)}
}

// ReadLine returns the next line without its terminator.
// The final unterminated line is returned together with io.EOF.
func (l *LineReader) ReadLine() (string, error) {
	for {
		raw, err := l.r.ReadSlice('\n')
		full := errors.Is(err, bufio.ErrBufferFull)
		if full {
			err = nil
		}

		cut := l.truncated
		l.truncated = full
		if cut && !full && len(l.carry) == 0 && isTerminator(raw) {
			// The previous piece already ended exactly where this line does.
			if err != nil {
				return "", err
			}
			continue
		}

		end := len(raw)
		if full {
			end = runeCut(raw)
		}
		line := string(l.carry) + string(raw[:end])
		l.carry = append(l.carry[:0], raw[end:]...)

		line = strings.TrimRight(line, "\r\n")
		return strings.ToValidUTF8(line, "\uFFFD"), err
	}
}

// Truncated reports whether the line last returned by ReadLine continues in
// the next piece.
func (l *LineReader) Truncated() bool {
	return l.truncated
}

// SkipRest discards the remainder of a truncated line through its newline.
func (l *LineReader) SkipRest() error {
	l.carry = l.carry[:0]
	for l.truncated {
		_, err := l.r.ReadSlice('\n')
		l.truncated = errors.Is(err, bufio.ErrBufferFull)
		if err != nil && !l.truncated {
			return err
		}
	}
	return nil
}

func isTerminator(raw []byte) bool {
	return len(bytes.TrimRight(raw, "\r\n")) == 0
}

// runeCut returns the length of p without a trailing incomplete rune.
func runeCut(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) || i == 0 {
			return len(p)
		}
		return i
	}
	return len(p)
}
