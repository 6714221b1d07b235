package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/intervald/internal/model"
)

type Type string

const (
	TypeStart     Type = "start"
	TypeConfigure Type = "configure"
	TypePause     Type = "pause"
	TypeResume    Type = "resume"
	TypeMute      Type = "mute"
	TypeReset     Type = "reset"
	TypeAck       Type = "ack"
	TypeStatus    Type = "status"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RunArgs carries an explicit configuration for start and configure. A nil
// RunArgs on start means "use the stored configuration".
type RunArgs struct {
	Config model.Config
}

type Command struct {
	Type Type
	Raw  string
	Run  *RunArgs
}

var aliases = map[string]Type{
	"go":     TypeStart,
	"set":    TypeConfigure,
	"p":      TypePause,
	"toggle": TypePause,
	"unmute": TypeMute,
	"stop":   TypeReset,
	"done":   TypeAck,
	"show":   TypeStatus,
}

// Parse reads one command line, for example
//
//	start 40 3 2 prepare=10 muted
//	pause
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := Type(strings.ToLower(parts[0]))
	if alias, ok := aliases[string(head)]; ok {
		head = alias
	}
	args := parts[1:]

	switch head {
	case TypeStart:
		if len(args) == 0 {
			return Command{Type: TypeStart, Raw: input}, nil
		}
		run, err := parseRun(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeStart, Raw: input, Run: run}, nil
	case TypeConfigure:
		run, err := parseRun(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeConfigure, Raw: input, Run: run}, nil
	case TypePause, TypeResume, TypeMute, TypeReset, TypeAck, TypeStatus:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", head)}
		}
		return Command{Type: head, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseRun accepts "<work> <cycles> <sets>" positionally or as key=value
// pairs, plus optional prepare=N and muted.
func parseRun(head Type, args []string) (*RunArgs, error) {
	cfg := model.Config{}
	positional := []*int{&cfg.Work, &cfg.Cycles, &cfg.Sets}
	names := []string{"work", "cycles", "sets"}
	seen := map[string]bool{}
	next := 0

	for _, arg := range args {
		lower := strings.ToLower(arg)
		if lower == "muted" || lower == "mute" {
			cfg.Muted = true
			continue
		}
		key, value, hasKey := strings.Cut(lower, "=")
		if !hasKey {
			if next >= len(positional) {
				return nil, invalidArg("%s: unexpected argument %q", head, arg)
			}
			n, err := parseSeconds(value)
			if err != nil {
				return nil, invalidArg("%s: %q is not a number", head, arg)
			}
			*positional[next] = n
			seen[names[next]] = true
			next++
			continue
		}

		n, err := parseSeconds(value)
		if err != nil && key != "muted" {
			return nil, invalidArg("%s: %s must be a number", head, key)
		}
		switch key {
		case "work":
			cfg.Work = n
		case "cycles":
			cfg.Cycles = n
		case "sets":
			cfg.Sets = n
		case "prepare":
			cfg.Prepare = n
		case "muted":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, invalidArg("%s: muted must be true or false", head)
			}
			cfg.Muted = b
		default:
			return nil, invalidArg("%s: unknown option %q", head, key)
		}
		seen[key] = true
	}

	for _, field := range names {
		if !seen[field] {
			return nil, invalidArg("%s requires work, cycles and sets", head)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return &RunArgs{Config: cfg}, nil
}

// parseSeconds accepts plain seconds or a trailing "s".
func parseSeconds(v string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(v, "s"))
}

func invalidArg(format string, a ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, a...)}
}
