// Package ipc exposes controller intents over a Unix socket.
package ipc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/pages"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

// Op names an intent.
type Op int

const (
	OpCreate Op = iota
	OpAdd
	OpClose
	OpCloseAll
	OpReorder
	OpMove
	OpMaximize
	OpKey
	OpTheme
	OpResize
	OpFind
	OpState
)

var opNames = map[string]Op{
	"create":    OpCreate,
	"add":       OpAdd,
	"close":     OpClose,
	"close-all": OpCloseAll,
	"reorder":   OpReorder,
	"move":      OpMove,
	"maximize":  OpMaximize,
	"key":       OpKey,
	"theme":     OpTheme,
	"resize":    OpResize,
	"find":      OpFind,
	"state":     OpState,
}

// String returns the string representation of Op
func (o Op) String() string {
	for name, op := range opNames {
		if op == o {
			return name
		}
	}
	return "unknown"
}

// PageRef addresses a page by id ("#3" or "3") or by a title query.
type PageRef struct {
	ID    pages.ID
	HasID bool
	Query string
}

func (r PageRef) String() string {
	if r.HasID {
		return fmt.Sprintf("#%d", r.ID)
	}
	return strconv.Quote(r.Query)
}

// Command is one parsed request line.
type Command struct {
	Op       Op
	Count    int
	Page     PageRef
	Target   PageRef
	From     int
	To       int
	Key      string
	Query    string
	Viewport layout.Viewport
}

// Parse turns a request line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty request", ErrUnknownCommand)
	}

	op, ok := opNames[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	args := fields[1:]
	cmd := Command{Op: op}

	switch op {
	case OpAdd, OpCloseAll, OpTheme, OpState:
		if len(args) != 0 {
			return Command{}, badArgs(op, "takes no arguments")
		}

	case OpCreate:
		if len(args) != 1 {
			return Command{}, badArgs(op, "usage: create N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, badArgs(op, "page count must be an integer")
		}
		cmd.Count = n

	case OpClose, OpMaximize:
		if len(args) == 0 {
			return Command{}, badArgs(op, "missing page")
		}
		cmd.Page = parseRef(strings.Join(args, " "))

	case OpReorder:
		if len(args) != 2 {
			return Command{}, badArgs(op, "usage: reorder PAGE TARGET")
		}
		cmd.Page = parseRef(args[0])
		cmd.Target = parseRef(args[1])

	case OpMove:
		if len(args) != 2 {
			return Command{}, badArgs(op, "usage: move FROM TO")
		}
		from, err1 := strconv.Atoi(args[0])
		to, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return Command{}, badArgs(op, "indices must be integers")
		}
		cmd.From, cmd.To = from, to

	case OpKey:
		if len(args) != 2 {
			return Command{}, badArgs(op, "usage: key PAGE KEY")
		}
		cmd.Page = parseRef(args[0])
		cmd.Key = args[1]

	case OpResize:
		if len(args) != 2 && len(args) != 4 {
			return Command{}, badArgs(op, "usage: resize W H [X Y]")
		}
		nums := make([]int, len(args))
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return Command{}, badArgs(op, "geometry must be integers")
			}
			nums[i] = n
		}
		if nums[0] <= 0 || nums[1] <= 0 {
			return Command{}, badArgs(op, "width and height must be positive")
		}
		cmd.Viewport = layout.Viewport{Width: nums[0], Height: nums[1]}
		if len(nums) == 4 {
			cmd.Viewport.X, cmd.Viewport.Y = nums[2], nums[3]
		}

	case OpFind:
		if len(args) == 0 {
			return Command{}, badArgs(op, "missing query")
		}
		cmd.Query = strings.Join(args, " ")
	}

	return cmd, nil
}

func parseRef(s string) PageRef {
	digits := strings.TrimPrefix(s, "#")
	if id, err := strconv.Atoi(digits); err == nil && id > 0 {
		return PageRef{ID: pages.ID(id), HasID: true}
	}
	return PageRef{Query: s}
}

func badArgs(op Op, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrBadArguments, op, msg)
}
