// Package script reads command scripts: one command per line, comma
// separated, e.g.
//
//	add,100,1,2,3
//	read,102
//	delete,100
//
// Spaces are ignored and the command name is case-insensitive.
package script

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	diskalloc "github.com/lance6716/disk-allocator"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidFileID  = errors.New("invalid file id")
	ErrInvalidData    = errors.New("invalid file data")
)

type Op int

const (
	OpAdd Op = iota + 1
	OpRead
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRead:
		return "read"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Command is a validated command. For OpRead, FileID may carry an offset in
// its last two digits.
type Command struct {
	Line    int
	Op      Op
	FileID  int
	Payload []int
}

// LineError is a line of the script that could not be turned into a command.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Parse reads every line of r. Invalid lines are collected as LineErrors and
// skipped, the returned error is only set when r can't be read.
func Parse(r io.Reader) ([]Command, []*LineError, error) {
	var (
		commands []Command
		invalid  []*LineError
	)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		cmd, ok, err := ParseLine(text)
		if err != nil {
			invalid = append(invalid, &LineError{Line: lineNo, Text: text, Err: err})
			continue
		}
		if !ok {
			continue
		}
		cmd.Line = lineNo
		commands = append(commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return commands, invalid, nil
}

// ParseLine parses one line. It reports false for blank lines and lines
// starting with '#'.
func ParseLine(line string) (Command, bool, error) {
	line = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Command{}, false, nil
	}

	var tokens []string
	for _, tok := range strings.Split(line, ",") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 2 {
		return Command{}, false, errors.Errorf("expected a command and a file id, got %q", line)
	}

	id, err := strconv.Atoi(tokens[1])
	if err != nil {
		return Command{}, false, errors.Wrapf(ErrInvalidFileID, "%q", tokens[1])
	}

	switch op := strings.ToLower(tokens[0]); op {
	case "add":
		cmd, err := parseAdd(id, tokens[2:])
		return cmd, err == nil, err
	case "read":
		fileID, _ := diskalloc.SplitFileID(id)
		if !diskalloc.ValidFileID(fileID) {
			return Command{}, false, errors.Wrapf(ErrInvalidFileID, "%d", id)
		}
		if len(tokens) > 2 {
			return Command{}, false, errors.Errorf("unexpected arguments for read: %v", tokens[2:])
		}
		return Command{Op: OpRead, FileID: id}, true, nil
	case "delete":
		if !diskalloc.ValidFileID(id) {
			return Command{}, false, errors.Wrapf(ErrInvalidFileID, "%d", id)
		}
		if len(tokens) > 2 {
			return Command{}, false, errors.Errorf("unexpected arguments for delete: %v", tokens[2:])
		}
		return Command{Op: OpDelete, FileID: id}, true, nil
	default:
		return Command{}, false, errors.Wrapf(ErrUnknownCommand, "%q", op)
	}
}

func parseAdd(id int, data []string) (Command, error) {
	if !diskalloc.ValidFileID(id) {
		return Command{}, errors.Wrapf(ErrInvalidFileID, "%d", id)
	}
	if len(data) == 0 {
		return Command{}, errors.Wrapf(ErrInvalidData, "file %d has no data", id)
	}
	payload := make([]int, len(data))
	for i, tok := range data {
		v, err := strconv.Atoi(tok)
		// 0 is not a datum, -1 marks empty entries on disk
		if err != nil || v == 0 || v == -1 {
			return Command{}, errors.Wrapf(ErrInvalidData, "file %d: %q", id, tok)
		}
		payload[i] = v
	}
	return Command{Op: OpAdd, FileID: id, Payload: payload}, nil
}
