// Package shell provides the shell executor adapter.
package shell

import (
	"context"
	"os"
	"os/exec"

	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec.
//
// Subprocess output is never captured-and-hidden: Run inherits the parent's
// standard streams, and Output captures stdout only, letting stderr through.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Run executes cmd with inherited standard streams.
func (e *Executor) Run(ctx context.Context, cmd ports.Command) error {
	c := e.command(ctx, cmd)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	e.logger.Debug("running `" + cmd.Name + "` in '" + c.Dir + "'")
	if err := c.Run(); err != nil {
		return wrapExit(err, cmd)
	}
	return nil
}

// Output executes cmd and returns its captured stdout.
func (e *Executor) Output(ctx context.Context, cmd ports.Command) ([]byte, error) {
	c := e.command(ctx, cmd)
	c.Stderr = os.Stderr

	e.logger.Debug("querying `" + cmd.Name + "` in '" + c.Dir + "'")
	out, err := c.Output()
	if err != nil {
		return nil, wrapExit(err, cmd)
	}
	return out, nil
}

func (e *Executor) command(ctx context.Context, cmd ports.Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec // command comes from trusted callers
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func wrapExit(err error, cmd ports.Command) error {
	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	wrapped := zerr.Wrap(err, "command failed")
	wrapped = zerr.With(wrapped, "command", cmd.Name)
	return zerr.With(wrapped, "exit_code", exitCode)
}
