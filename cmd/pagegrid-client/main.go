package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chess10kp/pagegrid/internal/config"
	"github.com/chess10kp/pagegrid/internal/ipc"
)

var socketPath string

// defaultSocket prefers $PAGEGRID_SOCKET, then the config file, then the
// built-in default.
func defaultSocket() string {
	if env := os.Getenv("PAGEGRID_SOCKET"); env != "" {
		return env
	}
	cfg, err := config.LoadConfig("~/.config/pagegrid/config.toml")
	if err == nil && cfg.SocketPath != "" {
		return cfg.SocketPath
	}
	return config.DefaultConfig.SocketPath
}

func send(cmd *cobra.Command, message string) error {
	reply, err := ipc.Send(socketPath, message)
	if err != nil {
		return err
	}
	if strings.HasPrefix(reply, "error: ") {
		return fmt.Errorf("%s", strings.TrimPrefix(reply, "error: "))
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// intent maps a subcommand directly onto an IPC request line.
func intent(use, short string, args cobra.PositionalArgs) *cobra.Command {
	name := strings.Fields(use)[0]
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, strings.Join(append([]string{name}, args...), " "))
		},
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pagegrid-client",
		Short:         "Send intents to a running pagegrid",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&socketPath, "socket", "s", defaultSocket(), "pagegrid IPC socket")

	root.AddCommand(
		intent("create N", "Replace all pages with N new pages", cobra.ExactArgs(1)),
		intent("add", "Add one page", cobra.NoArgs),
		intent("close PAGE", "Close a page by #id or title", cobra.MinimumNArgs(1)),
		intent("close-all", "Close every page", cobra.NoArgs),
		intent("reorder PAGE TARGET", "Move PAGE to TARGET's position", cobra.ExactArgs(2)),
		intent("move FROM TO", "Move the page at index FROM to index TO", cobra.ExactArgs(2)),
		intent("maximize PAGE", "Toggle maximize for a page", cobra.MinimumNArgs(1)),
		intent("key PAGE KEY", "Press a calculator key", cobra.ExactArgs(2)),
		intent("theme", "Toggle the dark theme", cobra.NoArgs),
		intent("resize W H [X Y]", "Set the viewport", cobra.RangeArgs(2, 4)),
		intent("find QUERY", "Search pages by title", cobra.MinimumNArgs(1)),
		intent("state", "Print the current arrangement as JSON", cobra.NoArgs),
		&cobra.Command{
			Use:   "raw MESSAGE",
			Short: "Send a raw request line",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, strings.Join(args, " "))
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
