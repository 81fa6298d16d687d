package ipc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chess10kp/pagegrid/internal/arrangement"
	"github.com/chess10kp/pagegrid/internal/pages"
)

const replyOK = "ok"

// Match is one find result.
type Match struct {
	ID    pages.ID   `json:"id"`
	Index int        `json:"index"`
	Kind  pages.Kind `json:"kind"`
	Title string     `json:"title"`
}

// Execute runs cmd against the controller and returns the reply body.
func Execute(ctrl *arrangement.Controller, cmd Command) (string, error) {
	switch cmd.Op {
	case OpCreate:
		return replyOK, ctrl.HandleCreate(cmd.Count)

	case OpAdd:
		return replyOK, ctrl.HandleAddPage()

	case OpClose:
		id, err := resolve(ctrl, cmd.Page)
		if err != nil {
			return "", err
		}
		return replyOK, ctrl.HandleClosePage(id)

	case OpCloseAll:
		return replyOK, ctrl.HandleCloseAll()

	case OpReorder:
		from, err := resolve(ctrl, cmd.Page)
		if err != nil {
			return "", err
		}
		to, err := resolve(ctrl, cmd.Target)
		if err != nil {
			return "", err
		}
		return replyOK, ctrl.HandleDragReorder(from, to)

	case OpMove:
		return replyOK, ctrl.HandleMove(cmd.From, cmd.To)

	case OpMaximize:
		id, err := resolve(ctrl, cmd.Page)
		if err != nil {
			return "", err
		}
		return replyOK, ctrl.HandleDoubleClick(id)

	case OpKey:
		id, err := resolve(ctrl, cmd.Page)
		if err != nil {
			return "", err
		}
		display, err := ctrl.HandleUtilityKey(id, cmd.Key)
		if err != nil {
			return "", err
		}
		return strconv.Quote(display), nil

	case OpTheme:
		if ctrl.HandleToggleTheme() {
			return "dark", nil
		}
		return "light", nil

	case OpResize:
		return replyOK, ctrl.HandleResize(cmd.Viewport)

	case OpFind:
		found := ctrl.Registry().Search(cmd.Query)
		matches := make([]Match, len(found))
		for i, p := range found {
			matches[i] = Match{ID: p.ID, Index: p.Index, Kind: p.Kind, Title: p.Title}
		}
		return marshal(matches)

	case OpState:
		return marshal(ctrl.State())
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Op)
}

func resolve(ctrl *arrangement.Controller, ref PageRef) (pages.ID, error) {
	reg := ctrl.Registry()
	if ref.HasID {
		if _, ok := reg.Get(ref.ID); !ok {
			return 0, fmt.Errorf("%w: %d", pages.ErrUnknownPage, ref.ID)
		}
		return ref.ID, nil
	}

	found := reg.Search(ref.Query)
	if len(found) == 0 {
		return 0, fmt.Errorf("%w: no page matches %s", pages.ErrUnknownPage, ref)
	}
	return found[0].ID, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode reply: %w", err)
	}
	return string(data), nil
}
