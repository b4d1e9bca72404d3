// Package control parses the textual commands of the interactive loop.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Kind identifies a command
type Kind int

const (
	CmdVolume Kind = iota
	CmdList
	CmdChange
	CmdScenes
	CmdStop
	CmdReload
	CmdHelp
	CmdQuit
)

func (k Kind) String() string {
	switch k {
	case CmdVolume:
		return "volume"
	case CmdList:
		return "list"
	case CmdChange:
		return "change"
	case CmdScenes:
		return "scenes"
	case CmdStop:
		return "stop"
	case CmdReload:
		return "reload"
	case CmdHelp:
		return "help"
	case CmdQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Usage is shown for unrecognized input
const Usage = "commands: <0-100> set volume | list | change <scene> | scenes | stop | reload | help | q"

// Command is one parsed line of input
type Command struct {
	Kind   Kind
	Volume int
	Scene  string
}

// UsageError reports input that is not a command
type UsageError struct {
	Input  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)\n%s", e.Reason, e.Input, Usage)
	}
	return fmt.Sprintf("unknown command %q\n%s", e.Input, Usage)
}

// Parse interprets one line. Keywords are case-insensitive; scene names are not.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, &UsageError{Input: line, Reason: "empty input"}
	}

	if n, ok := parseVolume(line); ok {
		return Command{Kind: CmdVolume, Volume: n}, nil
	}

	word, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		word, rest = line[:i], strings.TrimSpace(line[i:])
	}

	switch strings.ToLower(word) {
	case "change":
		if rest == "" {
			return Command{}, &UsageError{Input: line, Reason: "change needs a scene name"}
		}
		return Command{Kind: CmdChange, Scene: rest}, nil
	case "list":
		return noArgs(line, rest, CmdList)
	case "scenes":
		return noArgs(line, rest, CmdScenes)
	case "stop":
		return noArgs(line, rest, CmdStop)
	case "reload":
		return noArgs(line, rest, CmdReload)
	case "help", "?":
		return noArgs(line, rest, CmdHelp)
	case "q", "quit", "exit":
		return noArgs(line, rest, CmdQuit)
	}

	return Command{}, &UsageError{Input: line}
}

// parseVolume reads an integer. Values too large for an int clamp by sign
// to the ends of the volume range.
func parseVolume(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
		if strings.HasPrefix(s, "-") {
			return 0, true
		}
		return 100, true
	}
	return 0, false
}

func noArgs(line, rest string, kind Kind) (Command, error) {
	if rest != "" {
		return Command{}, &UsageError{Input: line, Reason: fmt.Sprintf("%s takes no arguments", kind)}
	}
	return Command{Kind: kind}, nil
}
