package trafficlight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type App struct {
	Config *Config

	light     *TrafficLight
	responder *Responder
	hooks     *HookRunner
}

func Run(ctx context.Context, command string, cli *CLI) error {
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	name, _, _ := strings.Cut(command, " ")
	switch name {
	case "run":
		cfg, err := LoadConfig(ctx, cli.Run.Config)
		if err != nil {
			return err
		}
		app, err := NewApp(cfg)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	case "wait":
		return runWait(ctx, &cli.Wait)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func NewApp(cfg *Config) (*App, error) {
	light, err := NewTrafficLight(cfg.Light)
	if err != nil {
		return nil, err
	}
	hooks, err := NewHookRunner(light, cfg.Hooks)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config: cfg,
		light:  light,
		hooks:  hooks,
	}
	if cfg.Responder != nil && cfg.Responder.Addr != "" {
		app.responder = NewResponder(cfg.Responder, light)
	}
	return app, nil
}

func (app *App) Light() *TrafficLight {
	return app.light
}

// Run simulates the light with its responder and hooks until ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := newLoggerFromContext(withLight(ctx, app.light))

	if err := app.light.Simulate(ctx); err != nil {
		return err
	}
	logger.Info("simulation started")

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.hooks.Run(ctx)
	}()

	errCh := make(chan error, 1)
	if app.responder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.responder.Run(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	<-ctx.Done()
	app.light.Stop()
	wg.Wait()
	logger.Info("simulation stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func runWait(ctx context.Context, cmd *WaitCmd) error {
	w, err := NewWaiter(cmd.URL, cmd.Phase, cmd.Interval)
	if err != nil {
		return err
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}
	return w.Wait(ctx)
}
