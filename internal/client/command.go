package client

import "strings"

// Usage is printed for unrecognized terminal input.
const Usage = "Invalid command. Use 'send <MSG>' or 'leave'"

// CommandKind is a parsed terminal command.
type CommandKind int

const (
	CommandInvalid CommandKind = iota
	CommandSend
	CommandLeave
	CommandRename
)

// Command is one terminal line after parsing.
type Command struct {
	Kind CommandKind
	Text string
}

// ParseCommand interprets a terminal line:
//
//	send <text>   queue a chat line
//	leave         end the session
//	name <user>   retry registration after a rejected username
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	switch {
	case line == "leave":
		return Command{Kind: CommandLeave}
	case strings.HasPrefix(line, "send "):
		return Command{Kind: CommandSend, Text: line[len("send "):]}
	case strings.HasPrefix(line, "name "):
		name := strings.TrimSpace(line[len("name "):])
		if name == "" {
			return Command{Kind: CommandInvalid}
		}
		return Command{Kind: CommandRename, Text: name}
	default:
		return Command{Kind: CommandInvalid}
	}
}
