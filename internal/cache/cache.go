// Package cache maintains the content-addressed on-disk cache of built
// backend binary pairs: the code-generation plugin dynamic library and the
// driver executable, keyed by the resolved toolchain identity.
//
// Entries are created lazily and rebuilt only on first use or when a rebuild
// is forced; nothing is ever garbage-collected. Concurrent invocations
// against the same cache key are unsupported and may race.
package cache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

//go:embed templates
var templates embed.FS

// DriverName is the driver executable's base name.
const DriverName = "spirv-builder-cli"

// interfaceCutover is the backend release date at which the driver interface
// changed. Older backends need the pre-cli feature of the driver crate.
var interfaceCutover = time.Date(2024, time.April, 24, 0, 0, 0, 0, time.UTC)

const (
	featurePreCLI = "spirv-builder-pre-cli"
	featureModern = "spirv-builder-0_10"
)

// Cache builds and caches backend binary pairs under a root directory.
type Cache struct {
	exec   ports.Executor
	logger ports.Logger
	root   string
}

// New creates a Cache rooted at root.
func New(exec ports.Executor, logger ports.Logger, root string) *Cache {
	return &Cache{exec: exec, logger: logger, root: root}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// CheckoutPath creates (idempotently) and returns the cache directory for the
// given toolchain identity.
func (c *Cache) CheckoutPath(tc domain.Toolchain) (string, error) {
	dir := filepath.Join(c.root, DriverName, tc.CacheKey())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", zerr.With(zerr.Wrap(err, "could not create cache directory"), "dir", dir)
	}
	return dir, nil
}

// PluginPath returns where the built backend plugin lives for tc.
func (c *Cache) PluginPath(tc domain.Toolchain) string {
	return filepath.Join(c.root, DriverName, tc.CacheKey(), pluginFilename())
}

// DriverPath returns where the built driver executable lives for tc.
func (c *Cache) DriverPath(tc domain.Toolchain) string {
	return filepath.Join(c.root, DriverName, tc.CacheKey(), driverFilename())
}

// EnsureBuilt makes sure the backend binary pair for tc exists in the cache,
// building it with the external toolchain when missing or when force is set.
// It returns the plugin and driver paths.
//
// Repeated calls with the same toolchain identity and force=false run the
// external build at most once.
func (c *Cache) EnsureBuilt(ctx context.Context, tc domain.Toolchain, force bool) (pluginPath, driverPath string, err error) {
	checkout, err := c.CheckoutPath(tc)
	if err != nil {
		return "", "", err
	}

	pluginPath = filepath.Join(checkout, pluginFilename())
	driverPath = filepath.Join(checkout, driverFilename())

	if !force && fileExists(pluginPath) && fileExists(driverPath) {
		c.logger.Info("backend artifacts already installed in '" + checkout + "', skipping build")
		return pluginPath, driverPath, nil
	}

	if err := c.writeDriverSources(tc, checkout); err != nil {
		return "", "", err
	}

	c.logger.Info(fmt.Sprintf("compiling backend %s, this may take a while", tc))

	// Refresh the dependency lock in case the backend moved since the
	// template was authored.
	if err := c.exec.Run(ctx, ports.Command{
		Name: "cargo",
		Args: []string{"update"},
		Dir:  checkout,
	}); err != nil {
		return "", "", errors.Join(domain.ErrBackendBuildFailed, err)
	}

	feature := featureForRelease(tc.ReleaseDate)
	if err := c.exec.Run(ctx, ports.Command{
		Name: "cargo",
		Args: []string{
			"+" + tc.Channel,
			"build", "--release",
			"--no-default-features",
			"--features", feature,
		},
		Dir: checkout,
	}); err != nil {
		return "", "", zerr.With(errors.Join(domain.ErrBackendBuildFailed, err), "feature", feature)
	}

	releaseDir := filepath.Join(checkout, "target", "release")
	if err := c.relocate(filepath.Join(releaseDir, pluginFilename()), pluginPath, releaseDir); err != nil {
		return "", "", err
	}
	if err := c.relocate(filepath.Join(releaseDir, driverFilename()), driverPath, releaseDir); err != nil {
		return "", "", err
	}

	return pluginPath, driverPath, nil
}

// writeDriverSources materializes the templated driver crate into the cache
// checkout, substituting the resolved source, version and channel.
func (c *Cache) writeDriverSources(tc domain.Toolchain, checkout string) error {
	vars := templateVars(tc)

	return fs.WalkDir(templates, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(path, "templates/")
		dest := filepath.Join(checkout, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return zerr.Wrap(err, "could not create driver source directory")
		}

		content, err := templates.ReadFile(path)
		if err != nil {
			return zerr.Wrap(err, "could not read embedded template")
		}
		rendered, err := renderTemplate(string(content), vars)
		if err != nil {
			return zerr.With(err, "template", rel)
		}

		c.logger.Debug("writing driver source '" + dest + "'")
		if err := os.WriteFile(dest, []byte(rendered), 0o644); err != nil { //nolint:gosec // crate sources
			return zerr.Wrap(err, "could not write driver source")
		}
		return nil
	})
}

// templateVars maps the resolved toolchain onto the template placeholders.
// The source and version render as manifest dependency-declaration fragments.
func templateVars(tc domain.Toolchain) map[string]string {
	vars := map[string]string{"CHANNEL": tc.Channel}

	switch src := tc.Source.(type) {
	case domain.Registry:
		vars["SOURCE_DECL"] = ""
		vars["VERSION_DECL"] = fmt.Sprintf("version = %q", strings.TrimPrefix(src.Ver, "v"))
	case domain.Git:
		vars["SOURCE_DECL"] = fmt.Sprintf("git = %q", src.URL)
		vars["VERSION_DECL"] = fmt.Sprintf("rev = %q", src.Rev)
	case domain.Local:
		vars["SOURCE_DECL"] = fmt.Sprintf("path = %q", src.Path)
		vars["VERSION_DECL"] = fmt.Sprintf("version = %q", strings.TrimPrefix(src.Ver, "v"))
	}
	return vars
}

// featureForRelease selects the driver interface generation for a backend
// released on the given date.
func featureForRelease(released time.Time) string {
	if released.Before(interfaceCutover) {
		return featurePreCLI
	}
	return featureModern
}

// relocate moves a built artifact from the build output directory to its
// cache destination. A missing artifact is fatal; the output directory's
// contents are attached to the error to aid debugging.
func (c *Cache) relocate(from, to, releaseDir string) error {
	if !fileExists(from) {
		err := zerr.With(zerr.Wrap(domain.ErrBackendBuildFailed, "expected artifact was not produced"), "missing_artifact", from)
		return zerr.With(err, "release_dir_contents", listDir(releaseDir))
	}
	if err := os.Rename(from, to); err != nil {
		return zerr.Wrap(err, "could not move built artifact into the cache")
	}
	c.logger.Info("installed '" + to + "'")
	return nil
}

func listDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "<unreadable: " + err.Error() + ">"
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// pluginFilename is the OS-dependent name of the backend plugin dynamic library.
func pluginFilename() string {
	switch runtime.GOOS {
	case "windows":
		return "rustc_codegen_spirv.dll"
	case "darwin":
		return "librustc_codegen_spirv.dylib"
	default:
		return "librustc_codegen_spirv.so"
	}
}

// driverFilename is the OS-dependent name of the driver executable.
func driverFilename() string {
	if runtime.GOOS == "windows" {
		return DriverName + ".exe"
	}
	return DriverName
}
