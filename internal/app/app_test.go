package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/internal/config"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/spv/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func seedArtifact(t *testing.T, crate, name string) string {
	t.Helper()
	dir := filepath.Join(crate, "target", "spirv")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("spirv:"+name), 0o644))
	return path
}

func testArgs(crate, outputDir string) *config.Args {
	args := config.DefaultArgs()
	args.Install.ShaderCrate = crate
	args.Build.OutputDir = outputDir
	return &args
}

func TestPublishManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := New(quietLogger(ctrl), mocks.NewMockExecutor(ctrl), nil, nil, nil, nil, nil)

	crate := t.TempDir()
	sky := seedArtifact(t, crate, "sky.spv")
	avs := seedArtifact(t, crate, "avs.spv")

	outputDir := filepath.Join(crate, "out")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	raw, err := json.Marshal([]domain.ShaderModule{
		{Entry: "shaders::sky::main_fs", Path: sky},
		{Entry: "main_vs", Path: avs},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, rawManifestName), raw, 0o644))

	require.NoError(t, a.publishManifest(testArgs(crate, outputDir)))

	// Artifacts were copied next to the manifest.
	assert.FileExists(t, filepath.Join(outputDir, "sky.spv"))
	assert.FileExists(t, filepath.Join(outputDir, "avs.spv"))

	// The raw manifest is consumed.
	assert.NoFileExists(t, filepath.Join(outputDir, rawManifestName))

	// The final manifest is deterministic: entries sorted, forward slashes,
	// stable pretty-printed encoding.
	manifest, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	require.NoError(t, err)
	goldie.New(t).Assert(t, "manifest", manifest)
}

func TestPublishManifest_MissingRawManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := New(quietLogger(ctrl), mocks.NewMockExecutor(ctrl), nil, nil, nil, nil, nil)

	crate := t.TempDir()
	outputDir := filepath.Join(crate, "out")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	err := a.publishManifest(testArgs(crate, outputDir))
	assert.ErrorIs(t, err, domain.ErrManifestMissing)
}

func TestPublishManifest_ArtifactAlreadyInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := New(quietLogger(ctrl), mocks.NewMockExecutor(ctrl), nil, nil, nil, nil, nil)

	// The driver emitted straight into the output directory; publication
	// must not truncate the artifact by copying it onto itself.
	crate := t.TempDir()
	outputDir := filepath.Join(crate, "out")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	artifact := filepath.Join(outputDir, "shader.spv")
	require.NoError(t, os.WriteFile(artifact, []byte("spirv-bytes"), 0o644))

	raw, err := json.Marshal([]domain.ShaderModule{{Entry: "main", Path: artifact}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, rawManifestName), raw, 0o644))

	require.NoError(t, a.publishManifest(testArgs(crate, outputDir)))

	content, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, "spirv-bytes", string(content))
}

func TestInvokeAndPublish_DriverFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	a := New(quietLogger(ctrl), exec, nil, nil, nil, nil, nil)

	exec.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd ports.Command) error {
			// The driver receives exactly one argument: the full merged
			// configuration as JSON.
			require.Len(t, cmd.Args, 1)
			var decoded config.Args
			require.NoError(t, json.Unmarshal([]byte(cmd.Args[0]), &decoded))
			return assert.AnError
		})

	args := testArgs(t.TempDir(), t.TempDir())
	err := a.invokeAndPublish(context.Background(), args, "/cache/spirv-builder-cli")
	assert.ErrorIs(t, err, domain.ErrDriverExecutionFailed)
}
