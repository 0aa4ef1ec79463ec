package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/zerr"
)

// metadataPointer locates the tool's declared config inside cargo metadata
// output, i.e. the `[package.metadata.rust-gpu]` / `[workspace.metadata.rust-gpu]`
// manifest sections.
const metadataPointer = "/metadata/rust-gpu"

// Merger resolves the final configuration for a shader crate by layering
// defaults, workspace manifest declarations, crate manifest declarations and
// command-line overrides, in that order.
type Merger struct {
	exec   ports.Executor
	logger ports.Logger
}

// NewMerger creates a Merger.
func NewMerger(exec ports.Executor, logger ports.Logger) *Merger {
	return &Merger{exec: exec, logger: logger}
}

// Resolve produces the merged Args for the crate at pkgPath. cliTree is the
// Tree form of the parsed command-line arguments and is applied last.
func (m *Merger) Resolve(ctx context.Context, pkgPath string, cliTree Tree) (Args, error) {
	merged, err := Defaults()
	if err != nil {
		return Args{}, err
	}

	metadata, err := m.cargoMetadata(ctx, pkgPath)
	if err != nil {
		return Args{}, err
	}

	if err := Merge(merged, workspaceLayer(metadata)); err != nil {
		return Args{}, zerr.Wrap(err, "failed to merge workspace config")
	}

	crateTree, err := crateLayer(metadata, pkgPath)
	if err != nil {
		return Args{}, err
	}
	if err := Merge(merged, crateTree); err != nil {
		return Args{}, zerr.Wrap(err, "failed to merge crate config")
	}

	if err := Merge(merged, cliTree); err != nil {
		return Args{}, zerr.Wrap(err, "failed to merge command-line config")
	}

	var args Args
	if err := FromTree(merged, &args); err != nil {
		return Args{}, err
	}
	return args, nil
}

// cargoMetadata queries the package manager for the crate's manifest metadata.
func (m *Merger) cargoMetadata(ctx context.Context, pkgPath string) (map[string]any, error) {
	manifestPath := filepath.Join(pkgPath, "Cargo.toml")
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no Cargo.toml at the given path"), "path", pkgPath)
	}

	out, err := m.exec.Output(ctx, ports.Command{
		Name: "cargo",
		Args: []string{"metadata", "--no-deps", "--manifest-path", manifestPath},
	})
	if err != nil {
		return nil, zerr.Wrap(err, "could not query crate metadata")
	}

	var metadata map[string]any
	if err := json.Unmarshal(out, &metadata); err != nil {
		return nil, zerr.Wrap(err, "could not parse crate metadata")
	}
	return metadata, nil
}

// workspaceLayer extracts the workspace-level declared config.
func workspaceLayer(metadata map[string]any) Tree {
	raw, ok := lookup(metadata, metadataPointer)
	if !ok {
		return Tree{}
	}
	tree, ok := raw.(map[string]any)
	if !ok {
		return Tree{}
	}
	return NormalizeKeys(tree)
}

// crateLayer extracts the declared config of the package whose manifest path
// matches the shader crate being built.
func crateLayer(metadata map[string]any, pkgPath string) (Tree, error) {
	packages, ok := lookup(metadata, "/packages")
	if !ok {
		return Tree{}, nil
	}
	list, ok := packages.([]any)
	if !ok {
		return Tree{}, nil
	}

	crateManifest, err := filepath.Abs(filepath.Join(pkgPath, "Cargo.toml"))
	if err != nil {
		return nil, zerr.Wrap(err, "could not resolve crate manifest path")
	}
	if resolved, err := filepath.EvalSymlinks(crateManifest); err == nil {
		crateManifest = resolved
	}

	for _, entry := range list {
		pkg, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		manifestPath, _ := pkg["manifest_path"].(string)
		// Windows canonical paths carry a \\?\ prefix.
		manifestPath = strings.TrimPrefix(manifestPath, `\\?\`)
		if manifestPath != strings.TrimPrefix(crateManifest, `\\?\`) {
			continue
		}
		raw, ok := lookup(pkg, metadataPointer)
		if !ok {
			return Tree{}, nil
		}
		tree, ok := raw.(map[string]any)
		if !ok {
			return Tree{}, nil
		}
		return NormalizeKeys(tree), nil
	}
	return Tree{}, nil
}
