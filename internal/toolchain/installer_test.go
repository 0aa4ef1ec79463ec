package toolchain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/spv/internal/core/ports/mocks"
	"go.trai.ch/spv/internal/toolchain"
	"go.uber.org/mock/gomock"
)

const channel = "nightly-2024-04-24"

const componentsInstalled = `rust-src (installed)
rustc-dev-x86_64-unknown-linux-gnu (installed)
llvm-tools-x86_64-unknown-linux-gnu (installed)
clippy-x86_64-unknown-linux-gnu
`

const componentsPartial = `rust-src (installed)
rustc-dev-x86_64-unknown-linux-gnu
llvm-tools-x86_64-unknown-linux-gnu
`

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func TestEnsure_EverythingPresent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	prompter := mocks.NewMockPrompter(ctrl) // must never be consulted

	exec.EXPECT().Output(gomock.Any(), ports.Command{
		Name: "rustup", Args: []string{"toolchain", "list"},
	}).Return([]byte(channel+"-x86_64-unknown-linux-gnu\nstable-x86_64-unknown-linux-gnu\n"), nil)
	exec.EXPECT().Output(gomock.Any(), ports.Command{
		Name: "rustup", Args: []string{"component", "list", "--toolchain", channel},
	}).Return([]byte(componentsInstalled), nil)

	i := toolchain.NewInstaller(exec, quietLogger(ctrl), prompter)
	require.NoError(t, i.Ensure(context.Background(), channel, false))
}

func TestEnsure_InstallsMissingChannelAfterConsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	prompter := mocks.NewMockPrompter(ctrl)

	exec.EXPECT().Output(gomock.Any(), ports.Command{
		Name: "rustup", Args: []string{"toolchain", "list"},
	}).Return([]byte("stable-x86_64-unknown-linux-gnu\n"), nil)
	prompter.EXPECT().Confirm(gomock.Any()).Return(true, nil)
	exec.EXPECT().Run(gomock.Any(), ports.Command{
		Name: "rustup", Args: []string{"toolchain", "add", channel},
	}).Return(nil)
	exec.EXPECT().Output(gomock.Any(), gomock.Any()).Return([]byte(componentsInstalled), nil)

	i := toolchain.NewInstaller(exec, quietLogger(ctrl), prompter)
	require.NoError(t, i.Ensure(context.Background(), channel, false))
}

func TestEnsure_InstallsMissingComponents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	prompter := mocks.NewMockPrompter(ctrl)

	exec.EXPECT().Output(gomock.Any(), gomock.Any()).
		Return([]byte(channel+"-x86_64-unknown-linux-gnu\n"), nil)
	exec.EXPECT().Output(gomock.Any(), gomock.Any()).
		Return([]byte(componentsPartial), nil)
	prompter.EXPECT().Confirm(gomock.Any()).Return(true, nil)
	exec.EXPECT().Run(gomock.Any(), ports.Command{
		Name: "rustup",
		Args: []string{"component", "add", "--toolchain", channel, "rust-src", "rustc-dev", "llvm-tools"},
	}).Return(nil)

	i := toolchain.NewInstaller(exec, quietLogger(ctrl), prompter)
	require.NoError(t, i.Ensure(context.Background(), channel, false))
}

func TestEnsure_DeclinedPrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	prompter := mocks.NewMockPrompter(ctrl)

	exec.EXPECT().Output(gomock.Any(), gomock.Any()).
		Return([]byte("stable-x86_64-unknown-linux-gnu\n"), nil)
	prompter.EXPECT().Confirm(gomock.Any()).Return(false, nil)

	i := toolchain.NewInstaller(exec, quietLogger(ctrl), prompter)
	err := i.Ensure(context.Background(), channel, false)
	assert.ErrorIs(t, err, domain.ErrUserDeclined)
}

func TestEnsure_AutoConsentSkipsPrompts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exec := mocks.NewMockExecutor(ctrl)
	prompter := mocks.NewMockPrompter(ctrl) // must never be consulted

	exec.EXPECT().Output(gomock.Any(), gomock.Any()).
		Return([]byte("stable-x86_64-unknown-linux-gnu\n"), nil)
	exec.EXPECT().Run(gomock.Any(), ports.Command{
		Name: "rustup", Args: []string{"toolchain", "add", channel},
	}).Return(nil)
	exec.EXPECT().Output(gomock.Any(), gomock.Any()).
		Return([]byte(componentsPartial), nil)
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil)

	i := toolchain.NewInstaller(exec, quietLogger(ctrl), prompter)
	require.NoError(t, i.Ensure(context.Background(), channel, true))
}
