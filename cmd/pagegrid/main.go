package main

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chess10kp/pagegrid/internal/config"
	"github.com/chess10kp/pagegrid/internal/core"
	"github.com/chess10kp/pagegrid/internal/logging"
)

const pidFile = "/tmp/pagegrid.pid"

var (
	configPath   string
	headlessMode bool
)

func ensureSingleInstance() error {
	if data, err := os.ReadFile(pidFile); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil && pid != os.Getpid() {
			process, err := os.FindProcess(pid)
			if err == nil {
				// Check if process is still running
				if err := process.Signal(syscall.Signal(0)); err == nil {
					process.Kill()
					process.Wait()
				}
			}
		}
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func cleanup() {
	os.Remove(pidFile)
}

var rootCmd = &cobra.Command{
	Use:          "pagegrid",
	Short:        "Tile live data pages in a near-square grid",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidateConfig(configPath)
		if err != nil {
			log.Warn("Using default config", "error", err)
			cfg = config.Default()
		}

		closer, err := logging.Setup(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer closer.Close()

		if err := ensureSingleInstance(); err != nil {
			return fmt.Errorf("failed to ensure single instance: %w", err)
		}
		defer cleanup()

		app, err := core.NewApp(cfg, headlessMode)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		return app.Run()
	},
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "~/.config/pagegrid/config.toml", "path to the config file")
	rootCmd.Flags().BoolVar(&headlessMode, "headless", false, "run without a window, logging presenter output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
