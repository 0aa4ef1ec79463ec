// Package config resolves the layered build/install configuration:
// built-in defaults, workspace manifest, crate manifest, then command line.
package config

// BuildArgs configures the compilation of the shader crate. Field names use
// snake_case JSON tags; the same keys appear hyphenated on the command line
// and in manifest metadata sections.
type BuildArgs struct {
	// OutputDir is where compiled shaders and the final manifest are written.
	OutputDir string `json:"output_dir"`

	// Watch recompiles on every source change instead of exiting.
	Watch bool `json:"watch"`

	// NoDefaultFeatures disables the shader crate's cargo default features.
	NoDefaultFeatures bool `json:"no_default_features"`

	// Features enables the given cargo features on the shader crate.
	Features []string `json:"features"`

	// ShaderTarget selects the SPIR-V compile target.
	ShaderTarget string `json:"shader_target"`

	// DenyWarnings treats warnings as errors during compilation.
	DenyWarnings bool `json:"deny_warnings"`

	// Debug compiles shaders in debug mode.
	Debug bool `json:"debug"`

	// Capability enables the listed SPIR-V capabilities.
	Capability []string `json:"capability"`

	// Extension enables the listed SPIR-V extensions.
	Extension []string `json:"extension"`

	// Multimodule compiles one artifact per entry point.
	Multimodule bool `json:"multimodule"`

	// SpirvMetadata sets the level of metadata included in the SPIR-V binary:
	// "none", "name-variables" or "full".
	SpirvMetadata string `json:"spirv_metadata"`

	// RelaxStructStore allows stores between struct types with compatible layout.
	RelaxStructStore bool `json:"relax_struct_store"`

	// RelaxLogicalPointer relaxes logical addressing mode pointer rules.
	RelaxLogicalPointer bool `json:"relax_logical_pointer"`

	// RelaxBlockLayout enables relaxed block layout checking.
	RelaxBlockLayout bool `json:"relax_block_layout"`

	// UniformBufferStandardLayout enables standard uniform buffer layout checking.
	UniformBufferStandardLayout bool `json:"uniform_buffer_standard_layout"`

	// ScalarBlockLayout enables scalar block layout checking.
	ScalarBlockLayout bool `json:"scalar_block_layout"`

	// SkipBlockLayout skips block layout checking entirely.
	SkipBlockLayout bool `json:"skip_block_layout"`

	// PreserveBindings keeps unused descriptor bindings for reflection.
	PreserveBindings bool `json:"preserve_bindings"`

	// ManifestFile names the final manifest written into the output directory.
	ManifestFile string `json:"manifest_file"`
}

// InstallArgs configures resolution and installation of the backend binary pair.
type InstallArgs struct {
	// DylibPath is filled in by the orchestrator once the backend plugin is built.
	DylibPath string `json:"dylib_path"`

	// ShaderCrate is the directory containing the shader crate to compile.
	ShaderCrate string `json:"shader_crate"`

	// SpirvBuilderSource overrides the backend source repository URL.
	SpirvBuilderSource string `json:"spirv_builder_source"`

	// SpirvBuilderVersion overrides the backend version. Interpreted as a
	// registry version when no source is given, otherwise as a git commitish.
	SpirvBuilderVersion string `json:"spirv_builder_version"`

	// RustToolchain overrides the toolchain channel used to build the backend.
	RustToolchain string `json:"rust_toolchain"`

	// ForceSpirvCliRebuild rebuilds the backend binary pair even when cached.
	ForceSpirvCliRebuild bool `json:"force_spirv_cli_rebuild"`

	// AutoInstallRustToolchain assumes "yes" for the toolchain install prompt.
	AutoInstallRustToolchain bool `json:"auto_install_rust_toolchain"`

	// ForceOverwriteLockfilesV4ToV3 opts into the temporary lockfile format
	// rewrite when the build toolchain predates the v4 lockfile format.
	ForceOverwriteLockfilesV4ToV3 bool `json:"force_overwrite_lockfiles_v4_to_v3"`
}

// Args is the full merged configuration handed to the driver as one JSON
// argument with nested build and install objects.
type Args struct {
	Build   BuildArgs   `json:"build"`
	Install InstallArgs `json:"install"`
}

// DefaultArgs returns the statically defined default for every field. This is
// the oracle layer values are compared against during merging, and the source
// of the command-line flag defaults.
func DefaultArgs() Args {
	return Args{
		Build: BuildArgs{
			OutputDir: "./",
			// Slice defaults are empty, not nil: unset command-line flags
			// materialize as empty slices, and both layers must serialize to
			// the same JSON value or the flag layer would clobber
			// manifest-declared lists.
			Features:      []string{},
			ShaderTarget:  "spirv-unknown-vulkan1.2",
			Capability:    []string{},
			Extension:     []string{},
			SpirvMetadata: "none",
			ManifestFile:  "manifest.json",
		},
		Install: InstallArgs{
			DylibPath:   "INTERNALLY_SET",
			ShaderCrate: "./",
		},
	}
}
