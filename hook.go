package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Songmu/wrapcommander"
	"github.com/mattn/go-shellwords"
)

// CommandHook runs a command when the light changes phase.
type CommandHook struct {
	name     string
	commands []string
	phase    *Phase
	timeout  time.Duration
}

func NewCommandHook(cfg *HookConfig) (*CommandHook, error) {
	cmds, err := shellwords.Parse(cfg.Run)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %s %w", cfg.Run, err)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: hook %s has no command", ErrInvalidConfig, cfg.Name)
	}
	h := &CommandHook{
		name:     cfg.Name,
		commands: cmds,
		timeout:  cfg.Timeout,
	}
	if h.timeout == 0 {
		h.timeout = DefaultHookTimeout
	}
	if cfg.Phase != nil {
		p := *cfg.Phase
		h.phase = &p
	}
	return h, nil
}

func (h *CommandHook) Name() string {
	return h.name
}

// Match reports whether the hook fires on p.
func (h *CommandHook) Match(p Phase) bool {
	return h.phase == nil || *h.phase == p
}

func (h *CommandHook) Run(ctx context.Context, lightName string, p Phase) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	logger := newLoggerFromContext(ctx).With(
		"name", h.name,
		"module", "commandhook",
		"commands", fmt.Sprintf("%v", h.commands),
		"trigger", p.String(),
	)
	logger.Debug("executing command")
	var cmd *exec.Cmd
	if len(h.commands) == 1 {
		cmd = exec.CommandContext(ctx, h.commands[0])
	} else {
		cmd = exec.CommandContext(ctx, h.commands[0], h.commands[1:]...)
	}
	cmd.Env = append(cmd.Env, os.Environ()...)
	cmd.Env = append(cmd.Env,
		"TRAFFICLIGHT_NAME="+lightName,
		"TRAFFICLIGHT_PHASE="+p.String(),
	)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 3 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Info("command failed",
			slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
			slog.String("output", string(out)),
			slog.String("error", err.Error()),
		)
		return err
	}
	logger.Debug("command succeeded",
		slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
		slog.String("output", string(out)),
	)
	return nil
}

// HookRunner runs hooks for every phase change of a light.
type HookRunner struct {
	light       *TrafficLight
	hooks       []*CommandHook
	ch          *Channel[Phase]
	unsubscribe func()
}

// NewHookRunner subscribes to light right away, so phase changes published
// before Run starts are not lost.
func NewHookRunner(light *TrafficLight, cfgs []*HookConfig) (*HookRunner, error) {
	r := &HookRunner{light: light}
	for _, c := range cfgs {
		h, err := NewCommandHook(c)
		if err != nil {
			return nil, err
		}
		r.hooks = append(r.hooks, h)
	}
	r.ch, r.unsubscribe = light.Subscribe()
	return r, nil
}

// Run blocks until ctx is done, then unsubscribes. Phases published while
// hooks are still running collapse into the latest one.
func (r *HookRunner) Run(ctx context.Context) {
	defer r.Close()
	ctx = withLight(ctx, r.light)
	for {
		p, err := r.ch.Receive(ctx)
		if err != nil {
			return
		}
		if err := r.Fire(ctx, p); err != nil {
			newLoggerFromContext(ctx).Warn("some hooks failed", "module", "hookrunner", "trigger", p.String(), "error", err.Error())
		}
	}
}

// Close stops receiving phase changes from the light.
func (r *HookRunner) Close() {
	r.unsubscribe()
}

// Fire runs every hook matching p in order and joins their errors.
func (r *HookRunner) Fire(ctx context.Context, p Phase) error {
	ctx = withLight(ctx, r.light)
	var errs error
	for i, h := range r.hooks {
		if !h.Match(p) {
			continue
		}
		if err := h.Run(ctx, r.light.Name(), p); err != nil {
			errs = errors.Join(errs, fmt.Errorf("hook %d name:%s failed: %w", i, h.Name(), err))
		}
	}
	return errs
}
