// Package resolver discovers which version and source of the rust-gpu backend
// a shader crate depends on, and resolves the toolchain channel and release
// date of that pinned version.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

// releaseDateFormat is the format the VCS is asked to print commit dates in.
const releaseDateFormat = "2006-01-02"

// Overrides carries explicit command-line overrides that bypass dependency
// discovery.
type Overrides struct {
	// Source is a backend repository URL. Only meaningful together with Version.
	Source string

	// Version is a registry version when Source is empty, else a git commitish.
	Version string

	// Channel overrides the toolchain channel read from the checkout.
	Channel string
}

// Resolver inspects a shader crate's dependency tree and the backend's own
// repository. It may perform a network clone; repeated calls against the same
// cache directory are idempotent and never auto-refresh an existing checkout.
type Resolver struct {
	exec      ports.Executor
	logger    ports.Logger
	cacheRoot string
}

// NewResolver creates a Resolver that keeps backend checkouts under cacheRoot.
func NewResolver(exec ports.Executor, logger ports.Logger, cacheRoot string) *Resolver {
	return &Resolver{exec: exec, logger: logger, cacheRoot: cacheRoot}
}

// Resolve produces the toolchain for the crate at pkgPath.
//
// With an explicit version override, dependency discovery is skipped and the
// source is built directly: a git source when a source URL is also given,
// otherwise the registry version. The backend checkout is still needed to
// read the release date and, absent an explicit channel, the toolchain
// declaration.
func (r *Resolver) Resolve(ctx context.Context, pkgPath string, opts Overrides) (domain.Toolchain, error) {
	var src domain.Source
	if opts.Version != "" {
		if opts.Source != "" {
			src = domain.Git{URL: opts.Source, Rev: opts.Version}
		} else {
			src = domain.Registry{Ver: opts.Version}
		}
	} else {
		discovered, err := r.discover(ctx, pkgPath)
		if err != nil {
			return domain.Toolchain{}, err
		}
		src = discovered
	}

	checkout, err := r.ensureCheckout(ctx, src)
	if err != nil {
		return domain.Toolchain{}, err
	}
	if err := r.checkoutVersion(ctx, checkout, src); err != nil {
		return domain.Toolchain{}, err
	}

	date, err := r.releaseDate(ctx, checkout, src)
	if err != nil {
		return domain.Toolchain{}, err
	}

	channel := opts.Channel
	if channel == "" {
		channel, err = channelFromToolchainDeclaration(checkout)
		if err != nil {
			return domain.Toolchain{}, err
		}
	}

	r.logger.Debug(fmt.Sprintf("resolved backend %s, released %s, channel %s",
		src.Render(), date.Format(releaseDateFormat), channel))

	return domain.Toolchain{Source: src, Channel: channel, ReleaseDate: date}, nil
}

// discover queries the crate's dependency tree for the spirv-std line.
func (r *Resolver) discover(ctx context.Context, pkgPath string) (domain.Source, error) {
	info, err := os.Stat(pkgPath)
	if err != nil || !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "not a directory"), "path", pkgPath)
	}

	out, err := r.exec.Output(ctx, ports.Command{
		Name: "cargo",
		Args: []string{"tree", "--workspace", "--prefix", "none"},
		Dir:  pkgPath,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "could not query the crate's dependency tree")
	}

	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "spirv-std") {
			return ParseDependencyLine(line)
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrDependencyNotDeclared, "no spirv-std line in the dependency tree"), "path", pkgPath)
}

// CheckoutDir returns where the backend source for src is (or will be) checked out.
func (r *Resolver) CheckoutDir(src domain.Source) string {
	return filepath.Join(r.cacheRoot, "rust-gpu-repo", domain.Dirname(src.Render()))
}

// ensureCheckout clones the backend repository if no checkout exists yet.
// An existing checkout is left untouched; it is never auto-refreshed.
func (r *Resolver) ensureCheckout(ctx context.Context, src domain.Source) (string, error) {
	dir := r.CheckoutDir(src)
	if _, err := os.Stat(dir); err == nil {
		r.logger.Debug("backend checkout already exists at '" + dir + "'")
		return dir, nil
	}

	r.logger.Info("cloning backend repository " + src.Repo())
	if err := r.exec.Run(ctx, ports.Command{
		Name: "git",
		Args: []string{"clone", src.Repo(), dir},
	}); err != nil {
		return "", zerr.With(errors.Join(domain.ErrCheckoutFailed, err), "repo", src.Repo())
	}
	return dir, nil
}

func (r *Resolver) checkoutVersion(ctx context.Context, checkout string, src domain.Source) error {
	if err := r.exec.Run(ctx, ports.Command{
		Name: "git",
		Args: []string{"checkout", src.Version()},
		Dir:  checkout,
	}); err != nil {
		wrapped := errors.Join(domain.ErrCheckoutFailed, err)
		return zerr.With(zerr.With(wrapped, "revision", src.Version()), "checkout", checkout)
	}
	return nil
}

// releaseDate reads the commit timestamp of the checked-out ref. The date
// gates which driver interface generation is selected at build time.
func (r *Resolver) releaseDate(ctx context.Context, checkout string, src domain.Source) (time.Time, error) {
	out, err := r.exec.Output(ctx, ports.Command{
		Name: "git",
		Args: []string{"show", "--no-patch", "--format=%cd", "--date=format:%Y-%m-%d", src.Version()},
		Dir:  checkout,
	})
	if err != nil {
		return time.Time{}, zerr.Wrap(err, "could not read the backend release date")
	}

	dateString := strings.Trim(strings.TrimSpace(string(out)), "'")
	date, err := time.Parse(releaseDateFormat, dateString)
	if err != nil {
		return time.Time{}, zerr.With(zerr.Wrap(err, "unparseable backend release date"), "date", dateString)
	}
	return date, nil
}

// toolchainDeclaration mirrors the rust-toolchain.toml file in the backend checkout.
type toolchainDeclaration struct {
	Toolchain struct {
		Channel string `toml:"channel"`
	} `toml:"toolchain"`
}

func channelFromToolchainDeclaration(checkout string) (string, error) {
	path := filepath.Join(checkout, "rust-toolchain.toml")
	data, err := os.ReadFile(path) //nolint:gosec // path is inside our own cache
	if err != nil {
		return "", zerr.With(errors.Join(domain.ErrToolchainDeclarationMissing, err), "path", path)
	}

	var decl toolchainDeclaration
	if err := toml.Unmarshal(data, &decl); err != nil {
		return "", zerr.With(errors.Join(domain.ErrToolchainDeclarationMissing, err), "path", path)
	}
	if decl.Toolchain.Channel == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrToolchainDeclarationMissing, "declaration has no channel"), "path", path)
	}
	return decl.Toolchain.Channel, nil
}
