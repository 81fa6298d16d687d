package ipc

import (
	"errors"
	"testing"

	"github.com/chess10kp/pagegrid/internal/layout"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		line string
		want Command
	}{
		{"create 4", Command{Op: OpCreate, Count: 4}},
		{"  ADD  ", Command{Op: OpAdd}},
		{"close #3", Command{Op: OpClose, Page: PageRef{ID: 3, HasID: true}}},
		{"close 7", Command{Op: OpClose, Page: PageRef{ID: 7, HasID: true}}},
		{"close Page 2", Command{Op: OpClose, Page: PageRef{Query: "Page 2"}}},
		{"close-all", Command{Op: OpCloseAll}},
		{"reorder #1 #4", Command{Op: OpReorder, Page: PageRef{ID: 1, HasID: true}, Target: PageRef{ID: 4, HasID: true}}},
		{"move 0 3", Command{Op: OpMove, From: 0, To: 3}},
		{"maximize calc", Command{Op: OpMaximize, Page: PageRef{Query: "calc"}}},
		{"key #5 =", Command{Op: OpKey, Page: PageRef{ID: 5, HasID: true}, Key: "="}},
		{"theme", Command{Op: OpTheme}},
		{"resize 1024 768", Command{Op: OpResize, Viewport: layout.Viewport{Width: 1024, Height: 768}}},
		{"resize 1024 768 10 20", Command{Op: OpResize, Viewport: layout.Viewport{X: 10, Y: 20, Width: 1024, Height: 768}}},
		{"find page 1", Command{Op: OpFind, Query: "page 1"}},
		{"state", Command{Op: OpState}},
	}

	for _, tc := range testCases {
		got, err := Parse(tc.line)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.line, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.line, got, tc.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		line string
		want error
	}{
		{"", ErrUnknownCommand},
		{"launch", ErrUnknownCommand},
		{"create", ErrBadArguments},
		{"create four", ErrBadArguments},
		{"add 1", ErrBadArguments},
		{"close", ErrBadArguments},
		{"reorder #1", ErrBadArguments},
		{"move a b", ErrBadArguments},
		{"key #1", ErrBadArguments},
		{"resize 100", ErrBadArguments},
		{"resize 0 100", ErrBadArguments},
		{"resize 100 100 5", ErrBadArguments},
		{"find", ErrBadArguments},
	}

	for _, tc := range testCases {
		_, err := Parse(tc.line)
		if !errors.Is(err, tc.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tc.line, err, tc.want)
		}
	}
}

func TestParseRef(t *testing.T) {
	if r := parseRef("#0"); r.HasID {
		t.Errorf("Expected #0 to be a query, got id %d", r.ID)
	}
	if r := parseRef("-2"); r.HasID {
		t.Errorf("Expected -2 to be a query, got id %d", r.ID)
	}
	if r := parseRef("12"); !r.HasID || r.ID != 12 {
		t.Errorf("Expected id 12, got %+v", r)
	}
}
