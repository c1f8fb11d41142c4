package client

import (
	"bytes"
	"strings"
)

// lineSplitter turns socket chunks into complete printable lines.
// A trailing partial line is held until its newline arrives.
type lineSplitter struct {
	partial []byte
}

func (s *lineSplitter) feed(p []byte) []string {
	var lines []string
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			s.partial = append(s.partial, p...)
			break
		}
		s.partial = append(s.partial, p[:i]...)
		lines = append(lines, printable(s.partial))
		s.partial = s.partial[:0]
		p = p[i+1:]
	}
	return lines
}

// rest returns and clears any unterminated data.
func (s *lineSplitter) rest() (string, bool) {
	if len(s.partial) == 0 {
		return "", false
	}
	line := printable(s.partial)
	s.partial = s.partial[:0]
	return line, true
}

func printable(b []byte) string {
	return strings.ToValidUTF8(strings.TrimRight(string(b), "\r"), "�")
}
