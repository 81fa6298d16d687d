package gtkview

import (
	"strings"
	"testing"

	"github.com/chess10kp/pagegrid/internal/arrangement"
)

func TestParseCount(t *testing.T) {
	testCases := []struct {
		text string
		want int
		ok   bool
	}{
		{"4", 4, true},
		{"  12 ", 12, true},
		{"0", 0, true},
		{"", 0, false},
		{"four", 0, false},
		{"3.5", 0, false},
	}

	for _, tc := range testCases {
		got, ok := parseCount(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseCount(%q) = %d, %v; want %d, %v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestWarningText(t *testing.T) {
	if got := warningText(arrangement.WarningCapacityExceeded, 16, ""); !strings.Contains(got, "16") {
		t.Errorf("Capacity warning should name the limit, got %q", got)
	}
	if got := warningText(arrangement.WarningInvalidCount, 8, ""); !strings.Contains(got, "between 1 and 8") {
		t.Errorf("Invalid count warning should name the range, got %q", got)
	}
	if got := warningText(arrangement.WarningUnknownPage, 16, "unknown page: 9"); got != "unknown page: 9" {
		t.Errorf("Expected detail passthrough, got %q", got)
	}
}

func TestFormatField(t *testing.T) {
	if got := formatField("x", 7); got != "x: 7" {
		t.Errorf("Expected %q, got %q", "x: 7", got)
	}
}
