package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/spv/internal/config"
)

// registerInstallFlags adds the backend resolution and installation flags.
// Defaults come from the static configuration oracle so a flag left at its
// default never shadows a value declared in a crate manifest.
func registerInstallFlags(cmd *cobra.Command) {
	d := config.DefaultArgs().Install
	f := cmd.Flags()
	f.String("shader-crate", d.ShaderCrate, "Directory containing the shader crate to compile")
	f.String("spirv-builder-source", d.SpirvBuilderSource, "Override the source repository of the backend")
	f.String("spirv-builder-version", d.SpirvBuilderVersion, "Override the backend version: a registry version, or a commitish when --spirv-builder-source is set")
	f.String("rust-toolchain", d.RustToolchain, "Override the toolchain channel used to build the backend")
	f.Bool("force-spirv-cli-rebuild", d.ForceSpirvCliRebuild, "Rebuild the backend binary pair even when cached")
	f.Bool("auto-install-rust-toolchain", d.AutoInstallRustToolchain, "Assume yes for toolchain installation prompts")
	f.Bool("force-overwrite-lockfiles-v4-to-v3", d.ForceOverwriteLockfilesV4ToV3, "Temporarily rewrite v4 lockfiles to v3 when the backend toolchain predates them")
}

// registerBuildFlags adds the shader compilation flags.
func registerBuildFlags(cmd *cobra.Command) {
	d := config.DefaultArgs().Build
	f := cmd.Flags()
	f.StringP("output-dir", "o", d.OutputDir, "Directory for compiled shaders and the manifest")
	f.BoolP("watch", "w", d.Watch, "Recompile on every source change instead of exiting")
	f.Bool("no-default-features", d.NoDefaultFeatures, "Disable the shader crate's default cargo features")
	f.StringSlice("features", d.Features, "Enable the given cargo features on the shader crate")
	f.String("shader-target", d.ShaderTarget, "SPIR-V compile target")
	f.Bool("deny-warnings", d.DenyWarnings, "Treat warnings as errors")
	f.Bool("debug", d.Debug, "Compile shaders in debug mode")
	f.StringSlice("capability", d.Capability, "Enable the listed SPIR-V capabilities")
	f.StringSlice("extension", d.Extension, "Enable the listed SPIR-V extensions")
	f.Bool("multimodule", d.Multimodule, "Compile one artifact per entry point")
	f.String("spirv-metadata", d.SpirvMetadata, "Level of metadata in the SPIR-V binary: none, name-variables or full")
	f.Bool("relax-struct-store", d.RelaxStructStore, "Allow stores between struct types with compatible layout")
	f.Bool("relax-logical-pointer", d.RelaxLogicalPointer, "Relax logical addressing mode pointer rules")
	f.Bool("relax-block-layout", d.RelaxBlockLayout, "Enable relaxed block layout checking")
	f.Bool("uniform-buffer-standard-layout", d.UniformBufferStandardLayout, "Enable standard uniform buffer layout checking")
	f.Bool("scalar-block-layout", d.ScalarBlockLayout, "Enable scalar block layout checking")
	f.Bool("skip-block-layout", d.SkipBlockLayout, "Skip block layout checking entirely")
	f.Bool("preserve-bindings", d.PreserveBindings, "Keep unused descriptor bindings for reflection")
	f.String("manifest-file", d.ManifestFile, "Name of the final manifest inside the output directory")
}

func installArgsFromFlags(cmd *cobra.Command) config.InstallArgs {
	f := cmd.Flags()
	args := config.DefaultArgs().Install
	args.ShaderCrate, _ = f.GetString("shader-crate")
	args.SpirvBuilderSource, _ = f.GetString("spirv-builder-source")
	args.SpirvBuilderVersion, _ = f.GetString("spirv-builder-version")
	args.RustToolchain, _ = f.GetString("rust-toolchain")
	args.ForceSpirvCliRebuild, _ = f.GetBool("force-spirv-cli-rebuild")
	args.AutoInstallRustToolchain, _ = f.GetBool("auto-install-rust-toolchain")
	args.ForceOverwriteLockfilesV4ToV3, _ = f.GetBool("force-overwrite-lockfiles-v4-to-v3")
	return args
}

func buildArgsFromFlags(cmd *cobra.Command) config.BuildArgs {
	f := cmd.Flags()
	args := config.DefaultArgs().Build
	args.OutputDir, _ = f.GetString("output-dir")
	args.Watch, _ = f.GetBool("watch")
	args.NoDefaultFeatures, _ = f.GetBool("no-default-features")
	args.Features, _ = f.GetStringSlice("features")
	args.ShaderTarget, _ = f.GetString("shader-target")
	args.DenyWarnings, _ = f.GetBool("deny-warnings")
	args.Debug, _ = f.GetBool("debug")
	args.Capability, _ = f.GetStringSlice("capability")
	args.Extension, _ = f.GetStringSlice("extension")
	args.Multimodule, _ = f.GetBool("multimodule")
	args.SpirvMetadata, _ = f.GetString("spirv-metadata")
	args.RelaxStructStore, _ = f.GetBool("relax-struct-store")
	args.RelaxLogicalPointer, _ = f.GetBool("relax-logical-pointer")
	args.RelaxBlockLayout, _ = f.GetBool("relax-block-layout")
	args.UniformBufferStandardLayout, _ = f.GetBool("uniform-buffer-standard-layout")
	args.ScalarBlockLayout, _ = f.GetBool("scalar-block-layout")
	args.SkipBlockLayout, _ = f.GetBool("skip-block-layout")
	args.PreserveBindings, _ = f.GetBool("preserve-bindings")
	args.ManifestFile, _ = f.GetString("manifest-file")
	return args
}
