// Package app implements the build orchestrator: it resolves configuration,
// resolves and builds the backend, invokes the driver and publishes the final
// shader manifest.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/spv/internal/cache"
	"go.trai.ch/spv/internal/config"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/spv/internal/lockfile"
	"go.trai.ch/spv/internal/resolver"
	"go.trai.ch/spv/internal/toolchain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// rawManifestName is the fixed name of the driver's raw output manifest.
const rawManifestName = "spirv-manifest.json"

// WatcherFactory creates a file watcher for watch mode.
type WatcherFactory func() (ports.Watcher, error)

// App drives the build pipeline. The pipeline is strictly sequential:
// configuration, then source resolution, then backend build, then driver
// invocation, then manifest publication. The only recovery action guaranteed
// to run on failure is the lockfile-patch reversion.
type App struct {
	logger     ports.Logger
	exec       ports.Executor
	merger     *config.Merger
	resolver   *resolver.Resolver
	cache      *cache.Cache
	installer  *toolchain.Installer
	newWatcher WatcherFactory
}

// New creates the orchestrator.
func New(
	logger ports.Logger,
	exec ports.Executor,
	merger *config.Merger,
	res *resolver.Resolver,
	c *cache.Cache,
	installer *toolchain.Installer,
	newWatcher WatcherFactory,
) *App {
	return &App{
		logger:     logger,
		exec:       exec,
		merger:     merger,
		resolver:   res,
		cache:      c,
		installer:  installer,
		newWatcher: newWatcher,
	}
}

// Install resolves the backend for the crate at pkgPath and ensures its
// binary pair is built and cached.
func (a *App) Install(ctx context.Context, pkgPath string, cliTree config.Tree) error {
	args, err := a.merger.Resolve(ctx, pkgPath, cliTree)
	if err != nil {
		return err
	}
	if err := normalizePaths(&args); err != nil {
		return err
	}

	guard, err := a.lockfileGuard(ctx, &args)
	if err != nil {
		return err
	}
	revert, err := a.patchUserLockfile(guard, args.Install.ShaderCrate)
	if err != nil {
		return err
	}
	defer revert()

	_, _, err = a.ensureBackend(ctx, &args, guard)
	return err
}

// Build runs the full pipeline for the crate at pkgPath: install the backend,
// invoke the driver and publish the final manifest. In watch mode the driver
// invocation and manifest publication repeat on every source change until the
// context is cancelled.
func (a *App) Build(ctx context.Context, pkgPath string, cliTree config.Tree) error {
	args, err := a.merger.Resolve(ctx, pkgPath, cliTree)
	if err != nil {
		return err
	}
	if err := normalizePaths(&args); err != nil {
		return err
	}

	guard, err := a.lockfileGuard(ctx, &args)
	if err != nil {
		return err
	}
	revert, err := a.patchUserLockfile(guard, args.Install.ShaderCrate)
	if err != nil {
		return err
	}
	defer revert()

	_, driverPath, err := a.ensureBackend(ctx, &args, guard)
	if err != nil {
		return err
	}

	if err := a.invokeAndPublish(ctx, &args, driverPath); err != nil {
		return err
	}

	if args.Build.Watch {
		return a.watchLoop(ctx, &args, driverPath)
	}
	return nil
}

// CacheDir returns the root of the on-disk toolchain cache.
func (a *App) CacheDir() string {
	return a.cache.Root()
}

// ResolveSource resolves and reports the backend source for the crate at
// pkgPath without building anything.
func (a *App) ResolveSource(ctx context.Context, pkgPath string, cliTree config.Tree) (domain.Toolchain, error) {
	args, err := a.merger.Resolve(ctx, pkgPath, cliTree)
	if err != nil {
		return domain.Toolchain{}, err
	}
	if err := normalizePaths(&args); err != nil {
		return domain.Toolchain{}, err
	}
	return a.resolver.Resolve(ctx, args.Install.ShaderCrate, resolver.Overrides{
		Source:  args.Install.SpirvBuilderSource,
		Version: args.Install.SpirvBuilderVersion,
		Channel: args.Install.RustToolchain,
	})
}

// ensureBackend resolves the backend source, ensures the toolchain channel is
// installed and the binary pair is built. It fills in the plugin path on args
// so the driver knows where to load the backend from.
func (a *App) ensureBackend(ctx context.Context, args *config.Args, guard *lockfile.Guard) (tc domain.Toolchain, driverPath string, err error) {
	tc, err = a.resolver.Resolve(ctx, args.Install.ShaderCrate, resolver.Overrides{
		Source:  args.Install.SpirvBuilderSource,
		Version: args.Install.SpirvBuilderVersion,
		Channel: args.Install.RustToolchain,
	})
	if err != nil {
		return domain.Toolchain{}, "", err
	}

	if err := a.installer.Ensure(ctx, tc.Channel, args.Install.AutoInstallRustToolchain); err != nil {
		return domain.Toolchain{}, "", err
	}

	if guard != nil {
		checkout, err := a.cache.CheckoutPath(tc)
		if err != nil {
			return domain.Toolchain{}, "", err
		}
		// A stale incompatible lock in the cache would break the backend
		// build. The build regenerates it, so no revert is needed here.
		if _, err := guard.CheckAndPatch(checkout); err != nil {
			return domain.Toolchain{}, "", err
		}
	}

	pluginPath, driverPath, err := a.cache.EnsureBuilt(ctx, tc, args.Install.ForceSpirvCliRebuild)
	if err != nil {
		return domain.Toolchain{}, "", err
	}
	args.Install.DylibPath = pluginPath
	return tc, driverPath, nil
}

// lockfileGuard returns a guard when the host toolchain needs the lockfile
// format workaround, nil otherwise.
func (a *App) lockfileGuard(ctx context.Context, args *config.Args) (*lockfile.Guard, error) {
	guard := lockfile.NewGuard(a.exec, a.logger, args.Install.ForceOverwriteLockfilesV4ToV3)
	active, err := guard.Active(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, nil
	}
	return guard, nil
}

// patchUserLockfile patches the shader crate's own lockfile. The returned
// revert function must run on every exit path: the lockfile belongs to the
// user and has to leave this process exactly as it was found.
func (a *App) patchUserLockfile(guard *lockfile.Guard, dir string) (revert func(), err error) {
	noop := func() {}
	if guard == nil {
		return noop, nil
	}

	patch, err := guard.CheckAndPatch(dir)
	if err != nil {
		return noop, err
	}
	if patch == nil {
		return noop, nil
	}
	return func() {
		if err := guard.Revert(patch); err != nil {
			a.logger.Error(zerr.Wrap(err, "failed to restore a patched lockfile"))
		}
	}, nil
}

// invokeAndPublish executes the driver with the merged configuration as its
// single JSON argument, then turns the raw manifest into the final one.
func (a *App) invokeAndPublish(ctx context.Context, args *config.Args, driverPath string) error {
	arg, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "could not serialize the driver argument")
	}
	a.logger.Debug("driver argument: " + string(arg))

	a.logger.Info("compiling shader crate at " + args.Install.ShaderCrate)
	if err := a.exec.Run(ctx, ports.Command{Name: driverPath, Args: []string{string(arg)}}); err != nil {
		return errors.Join(domain.ErrDriverExecutionFailed, err)
	}

	return a.publishManifest(args)
}

// publishManifest reads the driver's raw per-entry-point manifest, copies the
// artifacts into the output directory, and writes the final deterministic
// manifest. The raw manifest is deleted once consumed.
func (a *App) publishManifest(args *config.Args) error {
	rawPath := filepath.Join(args.Build.OutputDir, rawManifestName)
	raw, err := os.ReadFile(rawPath) //nolint:gosec // path is inside the configured output dir
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrManifestMissing, "the driver did not produce its raw manifest"), "path", rawPath)
	}

	var modules []domain.ShaderModule
	if err := json.Unmarshal(raw, &modules); err != nil {
		return zerr.With(zerr.Wrap(err, "malformed raw shader manifest"), "path", rawPath)
	}

	linkages := make([]domain.Linkage, 0, len(modules))
	for _, module := range modules {
		dest := filepath.Join(args.Build.OutputDir, filepath.Base(module.Path))
		// The driver may already emit into the output directory.
		if same, err := samePath(module.Path, dest); err != nil {
			return err
		} else if !same {
			if err := copyFile(module.Path, dest); err != nil {
				return zerr.Wrap(err, "could not copy shader artifact into the output directory")
			}
		}
		// Publish paths relative to the crate root for portability.
		rel, err := filepath.Rel(args.Install.ShaderCrate, dest)
		if err != nil {
			return zerr.Wrap(err, "could not relativize shader artifact path")
		}
		linkages = append(linkages, domain.NewLinkage(module.Entry, rel))
	}

	slices.SortFunc(linkages, domain.CompareLinkage)

	manifest, err := json.MarshalIndent(linkages, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "could not serialize the shader manifest")
	}

	manifestPath := filepath.Join(args.Build.OutputDir, args.Build.ManifestFile)
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil { //nolint:gosec // published manifest
		return zerr.With(zerr.Wrap(err, "could not write the shader manifest"), "path", manifestPath)
	}
	a.logger.Info("wrote manifest to '" + manifestPath + "'")

	if err := os.Remove(rawPath); err != nil {
		return zerr.Wrap(err, "could not remove the raw shader manifest")
	}
	return nil
}

// watchLoop re-runs driver invocation and manifest publication on every
// source change. It never returns voluntarily; cancellation is external.
// A failed recompile is reported and watching continues.
func (a *App) watchLoop(ctx context.Context, args *config.Args, driverPath string) error {
	w, err := a.newWatcher()
	if err != nil {
		return zerr.Wrap(err, "could not create the file watcher")
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(ctx, args.Install.ShaderCrate); err != nil {
		return zerr.Wrap(err, "could not watch the shader crate")
	}
	a.logger.Info("watching " + args.Install.ShaderCrate + " for changes")

	outputDir := args.Build.OutputDir + string(os.PathSeparator)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for event := range w.Events() {
			// Our own outputs must not retrigger the loop.
			if strings.HasPrefix(event.Path, outputDir) {
				continue
			}
			a.logger.Info(fmt.Sprintf("source change detected at %s, recompiling", event.Path))
			if err := a.invokeAndPublish(ctx, args, driverPath); err != nil {
				// A broken recompile is reported, watching continues.
				a.logger.Error(err)
			}
		}
		// The stream only ends on cancellation; shutting down is not an error.
		return nil
	})
	return g.Wait()
}

// normalizePaths canonicalizes the crate and output directories, creating the
// output directory if needed. The crate must already exist.
func normalizePaths(args *config.Args) error {
	crate, err := filepath.Abs(args.Install.ShaderCrate)
	if err != nil {
		return zerr.Wrap(err, "could not resolve the shader crate path")
	}
	if info, statErr := os.Stat(crate); statErr != nil || !info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "not a directory"), "path", crate)
	}
	args.Install.ShaderCrate = crate

	if err := os.MkdirAll(args.Build.OutputDir, 0o750); err != nil {
		return zerr.Wrap(err, "could not create the output directory")
	}
	outputDir, err := filepath.Abs(args.Build.OutputDir)
	if err != nil {
		return zerr.Wrap(err, "could not resolve the output directory")
	}
	args.Build.OutputDir = outputDir
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, zerr.Wrap(err, "could not resolve shader artifact path")
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, zerr.Wrap(err, "could not resolve shader artifact path")
	}
	return absA == absB, nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from) //nolint:gosec // artifact path comes from the raw manifest
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(to) //nolint:gosec // destination is inside the output dir
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
