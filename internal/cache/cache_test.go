package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/internal/cache"
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

func testToolchain() domain.Toolchain {
	return domain.Toolchain{
		Source:      domain.Registry{Ver: "v0.9.0"},
		Channel:     "nightly-2024-04-24",
		ReleaseDate: time.Date(2024, time.April, 24, 0, 0, 0, 0, time.UTC),
	}
}

// expectBuild wires the two external build commands and fakes the build
// output by dropping both artifacts into target/release.
func expectBuild(t *testing.T, exec *mocks.MockExecutor, feature string) {
	t.Helper()

	exec.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd ports.Command) error {
			assert.Equal(t, "cargo", cmd.Name)
			assert.Equal(t, []string{"update"}, cmd.Args)
			return nil
		})
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd ports.Command) error {
			assert.Equal(t, "cargo", cmd.Name)
			require.NotEmpty(t, cmd.Args)
			assert.Equal(t, "+nightly-2024-04-24", cmd.Args[0])
			assert.Contains(t, cmd.Args, "--no-default-features")
			assert.Contains(t, cmd.Args, feature)

			releaseDir := filepath.Join(cmd.Dir, "target", "release")
			require.NoError(t, os.MkdirAll(releaseDir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "librustc_codegen_spirv.so"), []byte("plugin"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "librustc_codegen_spirv.dylib"), []byte("plugin"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "rustc_codegen_spirv.dll"), []byte("plugin"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(releaseDir, cache.DriverName), []byte("driver"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(releaseDir, cache.DriverName+".exe"), []byte("driver"), 0o755))
			return nil
		})
}

func TestEnsureBuilt_BuildsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, quietLogger(ctrl), t.TempDir())
	tc := testToolchain()

	expectBuild(t, exec, "spirv-builder-0_10")

	pluginPath, driverPath, err := c.EnsureBuilt(context.Background(), tc, false)
	require.NoError(t, err)
	assert.FileExists(t, pluginPath)
	assert.FileExists(t, driverPath)

	// The cached pair short-circuits the second call; gomock would fail on
	// any further Run invocation.
	again, againDriver, err := c.EnsureBuilt(context.Background(), tc, false)
	require.NoError(t, err)
	assert.Equal(t, pluginPath, again)
	assert.Equal(t, driverPath, againDriver)
}

func TestEnsureBuilt_ForceRebuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, quietLogger(ctrl), t.TempDir())
	tc := testToolchain()

	expectBuild(t, exec, "spirv-builder-0_10")
	_, _, err := c.EnsureBuilt(context.Background(), tc, false)
	require.NoError(t, err)

	expectBuild(t, exec, "spirv-builder-0_10")
	_, _, err = c.EnsureBuilt(context.Background(), tc, true)
	require.NoError(t, err)
}

func TestEnsureBuilt_PreCLIFeatureForOldBackends(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, quietLogger(ctrl), t.TempDir())

	tc := testToolchain()
	tc.ReleaseDate = time.Date(2023, time.May, 27, 0, 0, 0, 0, time.UTC)

	expectBuild(t, exec, "spirv-builder-pre-cli")
	_, _, err := c.EnsureBuilt(context.Background(), tc, false)
	require.NoError(t, err)
}

func TestEnsureBuilt_MissingArtifactFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, quietLogger(ctrl), t.TempDir())

	// Both commands succeed but nothing lands in target/release.
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, _, err := c.EnsureBuilt(context.Background(), testToolchain(), false)
	assert.ErrorIs(t, err, domain.ErrBackendBuildFailed)
}

func TestEnsureBuilt_WritesRenderedDriverSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, quietLogger(ctrl), t.TempDir())
	tc := testToolchain()

	var checkout string
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd ports.Command) error {
			checkout = cmd.Dir
			return nil
		})
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil)

	_, _, err := c.EnsureBuilt(context.Background(), tc, false)
	require.Error(t, err) // no artifacts were produced

	manifest, err := os.ReadFile(filepath.Join(checkout, "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `version = "0.9.0"`)
	assert.NotContains(t, string(manifest), "${")

	toolchainDecl, err := os.ReadFile(filepath.Join(checkout, "rust-toolchain.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(toolchainDecl), `channel = "nightly-2024-04-24"`)
}

func TestCheckoutPath_DistinctPerToolchain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := cache.New(mocks.NewMockExecutor(ctrl), quietLogger(ctrl), t.TempDir())

	a, err := c.CheckoutPath(testToolchain())
	require.NoError(t, err)

	other := testToolchain()
	other.Channel = "nightly-2024-05-01"
	b, err := c.CheckoutPath(other)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}
