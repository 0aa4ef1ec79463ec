package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/cmd/spv/commands"
	"go.trai.ch/spv/internal/app"
	"go.trai.ch/spv/internal/cache"
	"go.trai.ch/spv/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newCLI(t *testing.T, cacheRoot string) (*commands.CLI, *bool) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	exec := mocks.NewMockExecutor(ctrl)
	c := cache.New(exec, log, cacheRoot)
	a := app.New(log, exec, nil, nil, c, nil, nil)

	verbose := false
	return commands.New(a, func(v bool) { verbose = v }), &verbose
}

func TestVersionCommand(t *testing.T) {
	cli, _ := newCLI(t, t.TempDir())

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "spv version")
	assert.Contains(t, out.String(), "commit:")
	assert.Contains(t, out.String(), "date:")
}

func TestVersionFlag(t *testing.T) {
	cli, _ := newCLI(t, t.TempDir())

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"--version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "version")
}

func TestShowCacheDir(t *testing.T) {
	root := t.TempDir()
	cli, _ := newCLI(t, root)

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"show", "cache-dir"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, root+"\n", out.String())
}

func TestVerboseFlagReachesLogger(t *testing.T) {
	cli, verbose := newCLI(t, t.TempDir())

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"version", "--verbose"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, *verbose)
}

func TestUnknownCommandFails(t *testing.T) {
	cli, _ := newCLI(t, t.TempDir())

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"frobnicate"})

	assert.Error(t, cli.Execute(context.Background()))
}

func TestBuildCommand_RejectsPositionalArgs(t *testing.T) {
	cli, _ := newCLI(t, t.TempDir())

	var out bytes.Buffer
	cli.SetOutput(&out)
	cli.SetArgs([]string{"build", "extra"})

	assert.Error(t, cli.Execute(context.Background()))
}
