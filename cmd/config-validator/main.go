package main

import (
	"fmt"
	"os"

	"github.com/chess10kp/pagegrid/internal/config"
)

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"~/.config/pagegrid/config.toml"}
	}

	failed := 0
	for _, path := range paths {
		fmt.Printf("Validating config: %s\n", path)

		cfg, err := config.LoadAndValidateConfig(path)
		if err != nil {
			fmt.Printf("  invalid: %v\n", err)
			failed++
			continue
		}

		fmt.Printf("  max pages: %d, viewport: %dx%d (%s), interval: %s, fields: %v\n",
			cfg.Grid.MaxPages,
			cfg.Grid.ViewportWidth, cfg.Grid.ViewportHeight, cfg.Grid.ViewportSource,
			cfg.Scheduler.Interval(),
			cfg.Pages.Fields)
	}

	if failed > 0 {
		fmt.Printf("%d of %d config(s) failed validation\n", failed, len(paths))
		os.Exit(1)
	}
	fmt.Println("Config is valid!")
}
