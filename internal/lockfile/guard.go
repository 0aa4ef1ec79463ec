// Package lockfile works around a dependency-lockfile format incompatibility.
//
// Newer package-manager releases write lockfiles in format version 4, which
// older toolchains refuse to read. When the host toolchain predates the new
// format, the guard can temporarily rewrite an affected lockfile to the old
// format version and restore it once resolution finishes, on every exit path.
package lockfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// Lock filename of the external package manager.
	lockFilename = "Cargo.lock"

	oldFormatVersion = 3
	newFormatVersion = 4
)

// formatThreshold is the first toolchain release whose package manager writes
// the new lockfile format. Hosts older than this need the patch workaround.
var formatThreshold = goversion.Must(goversion.NewVersion("1.78.0"))

// Patch records a lockfile rewrite so it can be reverted later.
type Patch struct {
	// Path of the rewritten lockfile.
	Path string

	// OriginalVersion is the format version the file declared before patching.
	OriginalVersion int
}

// Guard detects and patches incompatible lockfile formats.
type Guard struct {
	exec       ports.Executor
	logger     ports.Logger
	authorized bool
}

// NewGuard creates a Guard. authorized reflects the user's explicit opt-in to
// the rewrite workaround.
func NewGuard(exec ports.Executor, logger ports.Logger, authorized bool) *Guard {
	return &Guard{exec: exec, logger: logger, authorized: authorized}
}

// Active reports whether the guard applies at all: only when the host's
// default toolchain predates the new lockfile format.
func (g *Guard) Active(ctx context.Context) (bool, error) {
	out, err := g.exec.Output(ctx, ports.Command{Name: "cargo", Args: []string{"--version"}})
	if err != nil {
		return false, zerr.Wrap(err, "could not determine the host toolchain version")
	}

	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return false, zerr.With(zerr.New("unexpected toolchain version output"), "output", string(out))
	}
	// Nightly versions look like "1.77.0-nightly"; the release part is enough.
	raw := strings.SplitN(fields[1], "-", 2)[0]
	hostVersion, err := goversion.NewVersion(raw)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "unparseable toolchain version"), "version", raw)
	}
	return hostVersion.LessThan(formatThreshold), nil
}

// CheckAndPatch inspects the lockfile in dir. A lockfile declaring the new
// format version is rewritten to the old one when the user has opted in,
// returning a Patch to revert later. The old format is a no-op. A missing
// lockfile is a no-op. Any other declared version is fatal.
func (g *Guard) CheckAndPatch(dir string) (*Patch, error) {
	path := filepath.Join(dir, lockFilename)
	declared, found, err := readFormatVersion(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	switch declared {
	case oldFormatVersion:
		return nil, nil
	case newFormatVersion:
		if !g.authorized {
			err := zerr.With(zerr.Wrap(domain.ErrLockfilePatchingNotAuthorized, "the lockfile uses a format this toolchain cannot read"), "lockfile", path)
			return nil, zerr.With(err,
				"hint", "re-run with --force-overwrite-lockfiles-v4-to-v3 to temporarily rewrite it for this build")
		}
		g.logger.Warn(fmt.Sprintf("temporarily rewriting lockfile '%s' from format %d to %d", path, newFormatVersion, oldFormatVersion))
		if err := rewriteFormatVersion(path, newFormatVersion, oldFormatVersion); err != nil {
			return nil, err
		}
		return &Patch{Path: path, OriginalVersion: newFormatVersion}, nil
	default:
		err := zerr.With(zerr.Wrap(domain.ErrUnrecognizedLockfileFormat, "unknown format declaration"), "lockfile", path)
		return nil, zerr.With(err, "declared_version", declared)
	}
}

// Revert restores the original format version recorded in patch. It must run
// unconditionally when resolution finishes, whether it succeeded or not.
// A nil patch is a no-op.
func (g *Guard) Revert(patch *Patch) error {
	if patch == nil {
		return nil
	}
	g.logger.Debug(fmt.Sprintf("restoring lockfile '%s' to format %d", patch.Path, patch.OriginalVersion))
	return rewriteFormatVersion(patch.Path, oldFormatVersion, patch.OriginalVersion)
}

// readFormatVersion scans the lockfile for its format declaration line.
func readFormatVersion(path string) (version int, found bool, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // path points at a lockfile the user asked us to build
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, zerr.Wrap(err, "could not read lockfile")
	}

	for _, line := range strings.Split(string(data), "\n") {
		var v int
		if _, scanErr := fmt.Sscanf(line, "version = %d", &v); scanErr == nil {
			return v, true, nil
		}
	}
	return 0, false, nil
}

// rewriteFormatVersion swaps the format declaration in place, leaving every
// other byte of the file untouched so a later revert restores it exactly.
func rewriteFormatVersion(path string, from, to int) error {
	data, err := os.ReadFile(path) //nolint:gosec // see readFormatVersion
	if err != nil {
		return zerr.Wrap(err, "could not read lockfile")
	}

	oldLine := fmt.Appendf(nil, "version = %d", from)
	newLine := fmt.Appendf(nil, "version = %d", to)
	patched := bytes.Replace(data, oldLine, newLine, 1)
	if bytes.Equal(patched, data) {
		return zerr.With(zerr.Wrap(domain.ErrUnrecognizedLockfileFormat, "no format declaration to rewrite"), "lockfile", path)
	}

	if err := os.WriteFile(path, patched, 0o644); err != nil { //nolint:gosec // lockfiles are world-readable
		return zerr.Wrap(err, "could not rewrite lockfile")
	}
	return nil
}
