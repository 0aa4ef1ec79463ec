// Package toolchain ensures the rust toolchain channel and components needed
// to build the backend are installed, asking for consent before mutating the
// user's environment.
package toolchain

import (
	"context"
	"strings"

	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

// requiredComponents are the toolchain components the backend build needs.
var requiredComponents = []string{"rust-src", "rustc-dev", "llvm-tools"}

// Installer checks for and installs toolchains via the external installer CLI.
type Installer struct {
	exec     ports.Executor
	logger   ports.Logger
	prompter ports.Prompter
}

// NewInstaller creates an Installer.
func NewInstaller(exec ports.Executor, logger ports.Logger, prompter ports.Prompter) *Installer {
	return &Installer{exec: exec, logger: logger, prompter: prompter}
}

// Ensure makes sure the given toolchain channel and the required components
// exist, installing them after user consent. autoConsent skips the prompts.
// A declined prompt returns domain.ErrUserDeclined.
func (i *Installer) Ensure(ctx context.Context, channel string, autoConsent bool) error {
	installed, err := i.channelInstalled(ctx, channel)
	if err != nil {
		return err
	}
	if installed {
		i.logger.Debug("toolchain " + channel + " is already installed")
	} else {
		if err := i.consent("Install Rust "+channel+" with `rustup`", autoConsent); err != nil {
			return err
		}
		if err := i.exec.Run(ctx, ports.Command{
			Name: "rustup",
			Args: []string{"toolchain", "add", channel},
		}); err != nil {
			return zerr.Wrap(err, "could not install required toolchain")
		}
	}

	complete, err := i.componentsInstalled(ctx, channel)
	if err != nil {
		return err
	}
	if complete {
		i.logger.Debug("all required components are installed")
		return nil
	}
	if err := i.consent("Install toolchain components ("+strings.Join(requiredComponents, ", ")+") with `rustup`", autoConsent); err != nil {
		return err
	}
	args := append([]string{"component", "add", "--toolchain", channel}, requiredComponents...)
	if err := i.exec.Run(ctx, ports.Command{Name: "rustup", Args: args}); err != nil {
		return zerr.Wrap(err, "could not install required components")
	}
	return nil
}

func (i *Installer) channelInstalled(ctx context.Context, channel string) (bool, error) {
	out, err := i.exec.Output(ctx, ports.Command{
		Name: "rustup",
		Args: []string{"toolchain", "list"},
	})
	if err != nil {
		return false, zerr.Wrap(err, "could not list installed toolchains")
	}
	for _, tc := range strings.Fields(string(out)) {
		if strings.HasPrefix(tc, channel) {
			return true, nil
		}
	}
	return false, nil
}

func (i *Installer) componentsInstalled(ctx context.Context, channel string) (bool, error) {
	out, err := i.exec.Output(ctx, ports.Command{
		Name: "rustup",
		Args: []string{"component", "list", "--toolchain", channel},
	})
	if err != nil {
		return false, zerr.Wrap(err, "could not list installed components")
	}

	lines := strings.Split(string(out), "\n")
	for _, component := range requiredComponents {
		found := false
		for _, line := range lines {
			if strings.HasPrefix(line, component) && strings.HasSuffix(strings.TrimSpace(line), "(installed)") {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func (i *Installer) consent(prompt string, autoConsent bool) error {
	if autoConsent {
		return nil
	}
	ok, err := i.prompter.Confirm(prompt)
	if err != nil {
		return zerr.Wrap(err, "consent prompt failed")
	}
	if !ok {
		return domain.ErrUserDeclined
	}
	return nil
}
