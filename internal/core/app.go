// Package core assembles the page manager and runs its main loop.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/jonboulle/clockwork"

	"github.com/chess10kp/pagegrid/internal/arrangement"
	"github.com/chess10kp/pagegrid/internal/calculator"
	"github.com/chess10kp/pagegrid/internal/config"
	"github.com/chess10kp/pagegrid/internal/gtkview"
	"github.com/chess10kp/pagegrid/internal/headless"
	"github.com/chess10kp/pagegrid/internal/ipc"
	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/metrics"
	"github.com/chess10kp/pagegrid/internal/pages"
	"github.com/chess10kp/pagegrid/internal/scheduler"
	"github.com/chess10kp/pagegrid/internal/sway"
)

// App is main application
type App struct {
	config   *config.Config
	headless bool
	sigChan  chan os.Signal
	done     chan struct{}
	quitOnce sync.Once

	scheduler *scheduler.Scheduler
	registry  *pages.Registry
	ctrl      *arrangement.Controller
	ipc       *ipc.Server
	metrics   *http.Server
	view      *gtkview.View
}

// NewApp builds the model, scheduler and controller from cfg. Nothing runs
// until Run.
func NewApp(cfg *config.Config, headlessMode bool) (*App, error) {
	planner, err := layout.NewCachedPlanner(
		layout.NewPlanner(cfg.Grid.UsageRatio, cfg.Grid.MinCellSize),
		cfg.Grid.LayoutCacheSize,
	)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.Options{
		Clock:    clockwork.NewRealClock(),
		Interval: cfg.Scheduler.Interval(),
		Sampler:  scheduler.NewRandomSampler(cfg.Scheduler.SampleMin, cfg.Scheduler.SampleMax, time.Now().UnixNano()),
	})

	regOpts := pages.Options{
		MaxPages:     cfg.Grid.MaxPages,
		Fields:       cfg.Pages.Fields,
		TitleFormat:  cfg.Pages.TitleFormat,
		UtilityTitle: cfg.Pages.UtilityTitle,
		Tasks:        sched,
	}
	if cfg.Pages.UtilityPage {
		regOpts.NewUtility = func() pages.UtilityState { return calculator.New() }
	}
	registry := pages.NewRegistry(regOpts)

	ctrl := arrangement.New(arrangement.Options{
		Registry: registry,
		Planner:  planner,
		Viewport: resolveViewport(cfg),
		Dark:     cfg.Theme.Dark,
	})

	return &App{
		config:    cfg,
		headless:  headlessMode,
		sigChan:   make(chan os.Signal, 1),
		done:      make(chan struct{}),
		scheduler: sched,
		registry:  registry,
		ctrl:      ctrl,
	}, nil
}

func resolveViewport(cfg *config.Config) layout.Viewport {
	fixed := layout.Viewport{Width: cfg.Grid.ViewportWidth, Height: cfg.Grid.ViewportHeight}
	if cfg.Grid.ViewportSource != "sway" {
		return fixed
	}
	return sway.ResolveViewport(context.Background(), sway.IPCSource{}, fixed)
}

// Controller returns the arrangement controller.
func (a *App) Controller() *arrangement.Controller {
	return a.ctrl
}

// Run starts the application and blocks until Quit.
func (a *App) Run() error {
	signal.Notify(a.sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.sigChan)
	go func() {
		select {
		case sig := <-a.sigChan:
			log.Info("Received signal", "signal", sig)
			a.Quit()
		case <-a.done:
		}
	}()

	log.Info("pagegrid starting", "headless", a.headless)

	if err := a.initialize(); err != nil {
		a.Quit()
		return err
	}

	if a.headless {
		<-a.done
		return nil
	}

	gtk.Main()
	return nil
}

func (a *App) initialize() error {
	var presenter arrangement.Presenter
	if a.headless {
		presenter = headless.NewPresenter(log.Default())
	} else {
		gtk.Init(nil)

		view, err := gtkview.New(a.ctrl, gtkview.Options{
			Title:     a.config.AppName,
			Viewport:  a.ctrl.State().Viewport,
			MaxPages:  a.registry.MaxDataPages(),
			CustomCSS: a.config.Theme.CustomCSS,
			OnQuit:    a.Quit,
		})
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		a.view = view
		presenter = view

		go a.monitorGTKMainLoop()
	}

	a.ctrl.SetPresenter(presenter)
	a.scheduler.SetNotifier(presenter)

	if a.config.Metrics.Enabled {
		a.startMetrics()
	}

	server := ipc.NewServer(a.config.SocketPath, a.ctrl)
	if err := server.Start(); err != nil {
		log.Error("Failed to start IPC server", "error", err)
	} else {
		a.ipc = server
	}

	log.Info("Initialization complete")
	return nil
}

func (a *App) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{
		Addr:              a.config.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Metrics listening", "address", a.config.Metrics.Address)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
}

// Quit gracefully quits the application
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		log.Info("Shutting down...")

		if a.ipc != nil {
			a.ipc.Stop()
		}

		if a.metrics != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			a.metrics.Shutdown(ctx)
			cancel()
		}

		a.scheduler.Stop()
		close(a.done)

		if !a.headless {
			glib.IdleAdd(gtk.MainQuit)
		}
	})
}

// monitorGTKMainLoop logs a warning when the GTK main loop stops servicing
// idle callbacks.
func (a *App) monitorGTKMainLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		log.Debug("Main loop monitor",
			"goroutines", runtime.NumGoroutine(),
			"alloc_mb", m.Alloc/1024/1024,
			"pages", a.registry.Count(),
			"tasks", a.scheduler.Len())

		responsive := make(chan struct{}, 1)
		glib.IdleAdd(func() {
			responsive <- struct{}{}
		})

		select {
		case <-responsive:
		case <-time.After(2 * time.Second):
			log.Warn("GTK main loop appears to be blocked (callback not executed in 2s)")
		}
	}
}
