package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/internal/cache"
	"go.trai.ch/spv/internal/config"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/spv/internal/core/ports/mocks"
	"go.trai.ch/spv/internal/resolver"
	"go.trai.ch/spv/internal/toolchain"
	"go.uber.org/mock/gomock"
)

// pipelineWorld scripts every external command the full build pipeline runs,
// standing in for cargo, rustup, git and the driver executable.
type pipelineWorld struct {
	t         *testing.T
	crate     string
	artifact  string
	driverArg *config.Args
}

func (w *pipelineWorld) output(_ context.Context, cmd ports.Command) ([]byte, error) {
	switch {
	case cmd.Name == "cargo" && cmd.Args[0] == "metadata":
		return []byte(`{"packages":[]}`), nil
	case cmd.Name == "cargo" && cmd.Args[0] == "--version":
		return []byte("cargo 1.84.0 (66221abde 2024-11-19)\n"), nil
	case cmd.Name == "git" && cmd.Args[0] == "show":
		return []byte("2024-06-01\n"), nil
	case cmd.Name == "rustup" && cmd.Args[0] == "toolchain":
		return []byte("nightly-2024-04-24-x86_64-unknown-linux-gnu\n"), nil
	case cmd.Name == "rustup" && cmd.Args[0] == "component":
		return []byte("rust-src (installed)\nrustc-dev (installed)\nllvm-tools (installed)\n"), nil
	}
	w.t.Fatalf("unexpected query: %s %v", cmd.Name, cmd.Args)
	return nil, nil
}

func (w *pipelineWorld) run(_ context.Context, cmd ports.Command) error {
	switch {
	case cmd.Name == "git" && cmd.Args[0] == "checkout":
		return nil
	case cmd.Name == "cargo" && cmd.Args[0] == "update":
		return nil
	case cmd.Name == "cargo" && strings.HasPrefix(cmd.Args[0], "+"):
		releaseDir := filepath.Join(cmd.Dir, "target", "release")
		require.NoError(w.t, os.MkdirAll(releaseDir, 0o755))
		for _, name := range []string{
			"librustc_codegen_spirv.so", "librustc_codegen_spirv.dylib",
			"rustc_codegen_spirv.dll", cache.DriverName, cache.DriverName + ".exe",
		} {
			require.NoError(w.t, os.WriteFile(filepath.Join(releaseDir, name), []byte(name), 0o755))
		}
		return nil
	case strings.Contains(cmd.Name, cache.DriverName):
		// The driver: decode its single JSON argument, emit one artifact
		// and the raw manifest.
		require.Len(w.t, cmd.Args, 1)
		w.driverArg = &config.Args{}
		require.NoError(w.t, json.Unmarshal([]byte(cmd.Args[0]), w.driverArg))

		w.artifact = filepath.Join(w.crate, "target", "spirv", "shader.spv")
		require.NoError(w.t, os.MkdirAll(filepath.Dir(w.artifact), 0o755))
		require.NoError(w.t, os.WriteFile(w.artifact, []byte("spirv-bytes"), 0o644))

		raw, err := json.Marshal([]domain.ShaderModule{{Entry: "main_fs", Path: w.artifact}})
		require.NoError(w.t, err)
		rawPath := filepath.Join(w.driverArg.Build.OutputDir, rawManifestName)
		require.NoError(w.t, os.WriteFile(rawPath, raw, 0o644))
		return nil
	}
	w.t.Fatalf("unexpected command: %s %v", cmd.Name, cmd.Args)
	return nil
}

func TestBuild_FullPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	crate := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(crate, "Cargo.toml"), []byte("[package]\nname = \"shader\"\n"), 0o644))
	outputDir := filepath.Join(crate, "out")
	cacheRoot := t.TempDir()

	world := &pipelineWorld{t: t, crate: crate}
	exec := mocks.NewMockExecutor(ctrl)
	exec.EXPECT().Output(gomock.Any(), gomock.Any()).DoAndReturn(world.output).AnyTimes()
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(world.run).AnyTimes()
	log := quietLogger(ctrl)

	res := resolver.NewResolver(exec, log, cacheRoot)
	checkout := res.CheckoutDir(domain.Registry{Ver: "v0.9.0"})
	require.NoError(t, os.MkdirAll(checkout, 0o755))
	decl := "[toolchain]\nchannel = \"nightly-2024-04-24\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "rust-toolchain.toml"), []byte(decl), 0o644))

	a := New(
		log,
		exec,
		config.NewMerger(exec, log),
		res,
		cache.New(exec, log, cacheRoot),
		toolchain.NewInstaller(exec, log, mocks.NewMockPrompter(ctrl)),
		nil,
	)

	cliArgs := config.DefaultArgs()
	cliArgs.Install.ShaderCrate = crate
	cliArgs.Install.SpirvBuilderVersion = "v0.9.0"
	cliArgs.Build.OutputDir = outputDir
	cliTree, err := config.ToTree(cliArgs)
	require.NoError(t, err)

	require.NoError(t, a.Build(context.Background(), crate, cliTree))

	// The driver received the built plugin's location, not the placeholder.
	require.NotNil(t, world.driverArg)
	assert.NotEqual(t, "INTERNALLY_SET", world.driverArg.Install.DylibPath)
	assert.Contains(t, world.driverArg.Install.DylibPath, "rustc_codegen_spirv")

	// The published manifest references the copied artifact.
	manifest, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	require.NoError(t, err)
	var linkages []domain.Linkage
	require.NoError(t, json.Unmarshal(manifest, &linkages))
	require.Len(t, linkages, 1)
	assert.Equal(t, "main_fs", linkages[0].EntryPoint)
	assert.Equal(t, "out/shader.spv", linkages[0].SourcePath)

	assert.FileExists(t, filepath.Join(outputDir, "shader.spv"))
	assert.NoFileExists(t, filepath.Join(outputDir, rawManifestName))
}
