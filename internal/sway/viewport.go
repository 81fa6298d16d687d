// Package sway discovers the arrangement viewport from the focused sway
// workspace.
package sway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gosway "github.com/joshuarubin/go-sway"

	"github.com/chess10kp/pagegrid/internal/layout"
)

var ErrNoFocusedWorkspace = errors.New("no focused workspace")

const queryTimeout = 2 * time.Second

// Workspace is the part of a sway workspace the viewport needs.
type Workspace struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
	Output  string `json:"output"`
	Rect    struct {
		X      int64 `json:"x"`
		Y      int64 `json:"y"`
		Width  int64 `json:"width"`
		Height int64 `json:"height"`
	} `json:"rect"`
}

// WorkspaceSource lists workspaces.
type WorkspaceSource interface {
	Workspaces(ctx context.Context) ([]Workspace, error)
}

// IPCSource queries sway over its IPC socket, falling back to swaymsg.
type IPCSource struct{}

func (IPCSource) Workspaces(ctx context.Context) ([]Workspace, error) {
	client, err := gosway.New(ctx)
	if err == nil {
		swayWorkspaces, err := client.GetWorkspaces(ctx)
		if err == nil {
			workspaces := make([]Workspace, len(swayWorkspaces))
			for i, ws := range swayWorkspaces {
				workspaces[i].Name = ws.Name
				workspaces[i].Focused = ws.Focused
				workspaces[i].Output = ws.Output
				workspaces[i].Rect.X = ws.Rect.X
				workspaces[i].Rect.Y = ws.Rect.Y
				workspaces[i].Rect.Width = ws.Rect.Width
				workspaces[i].Rect.Height = ws.Rect.Height
			}
			return workspaces, nil
		}
	}

	return swaymsgWorkspaces(ctx)
}

func swaymsgWorkspaces(ctx context.Context) ([]Workspace, error) {
	env := os.Environ()
	// Remove LD_PRELOAD to avoid child process issues
	for i, e := range env {
		if strings.HasPrefix(e, "LD_PRELOAD=") {
			env = append(env[:i], env[i+1:]...)
			break
		}
	}

	cmd := exec.CommandContext(ctx, "swaymsg", "-t", "get_workspaces")
	cmd.Env = env
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("swaymsg get_workspaces: %w", err)
	}

	var workspaces []Workspace
	if err := json.Unmarshal(output, &workspaces); err != nil {
		return nil, fmt.Errorf("failed to parse swaymsg output: %w", err)
	}
	return workspaces, nil
}

// FocusedViewport returns the rect of the focused workspace.
func FocusedViewport(ctx context.Context, src WorkspaceSource) (layout.Viewport, error) {
	workspaces, err := src.Workspaces(ctx)
	if err != nil {
		return layout.Viewport{}, err
	}

	for _, ws := range workspaces {
		if !ws.Focused {
			continue
		}
		if ws.Rect.Width <= 0 || ws.Rect.Height <= 0 {
			return layout.Viewport{}, fmt.Errorf("workspace %q has empty rect", ws.Name)
		}
		return layout.Viewport{
			X:      int(ws.Rect.X),
			Y:      int(ws.Rect.Y),
			Width:  int(ws.Rect.Width),
			Height: int(ws.Rect.Height),
		}, nil
	}
	return layout.Viewport{}, ErrNoFocusedWorkspace
}

// ResolveViewport returns the focused workspace viewport, or fallback when
// sway cannot be queried.
func ResolveViewport(ctx context.Context, src WorkspaceSource, fallback layout.Viewport) layout.Viewport {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	vp, err := FocusedViewport(ctx, src)
	if err != nil {
		log.Warn("Using configured viewport", "reason", err, "viewport", fallback.Rect())
		return fallback
	}

	log.Info("Using sway workspace viewport", "viewport", vp.Rect())
	return vp
}
