// Package build is the Main Build Orchestrator of spec.md §4.5: it wires
// the Manifest Resolver, Graph Engine, Dependency Builder, Toolchain
// Abstraction and Compile-DB Generator into the single control flow a
// `build` invocation follows (spec.md §2): Manifest Resolver -> Graph
// Engine -> Dependency Builder -> orchestrator -> Compile-DB Generator.
package build

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/xerrors"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/compiledb"
	"github.com/flappy-build/flappy/internal/depbuild"
	"github.com/flappy-build/flappy/internal/env"
	"github.com/flappy-build/flappy/internal/fetch"
	"github.com/flappy-build/flappy/internal/graph"
	"github.com/flappy-build/flappy/internal/logging"
	"github.com/flappy-build/flappy/internal/manifest"
	"github.com/flappy-build/flappy/internal/orchestrator"
	"github.com/flappy-build/flappy/internal/procshim"
	"github.com/flappy-build/flappy/internal/toolchain"
)

// Ctx holds everything one `build` invocation needs, the way
// distri's internal/build.Ctx carries one package build's parameters
// through Build.
type Ctx struct {
	ProjectDir  string // directory containing flappy.toml
	Profile     manifest.Profile
	ProfileName string // custom [build.<profile>] name requested via the CLI, "" if none
	Arch        string // defaults to flappy.HostArch() if empty
	Jobs        int    // defaults to runtime.NumCPU() if zero

	// SkipDeps suppresses dependency graph resolution/build, used when a
	// parent build recursively invokes a child project build (spec.md
	// §4.4 strategy 2) whose own Build call handles its own dependencies.
	SkipDeps bool

	Log *logging.Sink

	// testing hooks; nil in production use
	fetcher *fetch.Fetcher
	shim    *toolchain.Shim
}

// Result is everything a completed build produced.
type Result struct {
	Manifest  *manifest.Manifest
	DepMeta   map[string]depbuild.Metadata
	Output    string
	Objects   []string
	CompileDB []compiledb.Record
}

func (b *Ctx) jobs() int {
	if b.Jobs > 0 {
		return b.Jobs
	}
	return runtime.NumCPU()
}

func (b *Ctx) arch() string {
	if b.Arch != "" {
		return b.Arch
	}
	return flappy.HostArch()
}

func (b *Ctx) log() *logging.Sink {
	if b.Log != nil {
		return b.Log
	}
	return logging.New()
}

func (b *Ctx) fetcherOrDefault() *fetch.Fetcher {
	if b.fetcher != nil {
		return b.fetcher
	}
	return fetch.New(env.CacheRoot)
}

func (b *Ctx) shimOrDefault() *toolchain.Shim {
	if b.shim != nil {
		return b.shim
	}
	return &toolchain.Shim{Locator: toolchain.NewVCVarsallLocator(runShell)}
}

// runShell backs toolchain.NewVCVarsallLocator's vswhere.exe invocation.
func runShell(name string, args ...string) (string, error) {
	res, err := procshim.Run(context.Background(), "", nil, name, args...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Build runs one full build: resolve the manifest, resolve and build the
// dependency graph (unless SkipDeps), compile and link the project's own
// sources, copy runtime artifacts, and emit compile_commands.json.
func (b *Ctx) Build(ctx context.Context) (*Result, error) {
	manifestPath := filepath.Join(b.ProjectDir, "flappy.toml")
	m, err := manifest.Load(manifestPath, manifest.Options{
		Profile: b.ProfileName,
		Mode:    b.Profile,
	})
	if err != nil {
		return nil, err
	}

	family := toolchain.Classify(m.Build.Compiler)
	shim := b.shimOrDefault()

	var depMeta map[string]depbuild.Metadata
	if !b.SkipDeps && len(m.Dependencies) > 0 {
		depMeta, err = b.resolveAndBuildDeps(ctx, m, family)
		if err != nil {
			return nil, err
		}
		if err := linkPackagesDir(b.ProjectDir, depMeta, b.fetcherOrDefault(), m.Dependencies, b.Profile, m.Build.Compiler, b.arch()); err != nil {
			b.log().Warn("packages", "creating packages/ symlinks: %v", err)
		}
	}

	res, err := b.buildArtifact(ctx, m.Build, family, shim, depMeta, "src", filepath.Join(b.ProjectDir, "obj"))
	if err != nil {
		return nil, err
	}
	res.Manifest = m
	res.DepMeta = depMeta

	if err := compiledb.Write(filepath.Join(b.ProjectDir, "compile_commands.json"), res.CompileDB); err != nil {
		return nil, xerrors.Errorf("writing compile_commands.json: %w", err)
	}

	return res, nil
}

// BuildTests builds the project's [test] sources into m.Test.Output,
// reusing the same compile/link machinery under a distinct obj/test
// subdirectory (spec.md §4.5). When the main artifact is a static
// library, it is linked into the test binary automatically.
func (b *Ctx) BuildTests(ctx context.Context, m *manifest.Manifest, depMeta map[string]depbuild.Metadata, mainArtifact string) (*Result, error) {
	if m.Test == nil {
		return nil, xerrors.New("project has no [test] table")
	}
	family := toolchain.Classify(m.Build.Compiler)
	shim := b.shimOrDefault()

	testBuild := m.Build
	testBuild.Output = m.Test.Output
	testBuild.Type = manifest.TypeExe
	testBuild.Defines = append(append([]string{}, m.Build.Defines...), m.Test.Defines...)
	testBuild.Flags = append(append([]string{}, m.Build.Flags...), m.Test.Flags...)

	sources, err := expandTestGlobs(b.ProjectDir, m.Test.Sources)
	if err != nil {
		return nil, err
	}

	extraLibs := collectLibs(depMeta)
	if m.Build.Type == manifest.TypeStatic && mainArtifact != "" {
		extraLibs = append(extraLibs, mainArtifact)
	}

	return b.buildFromSources(ctx, testBuild, family, shim, depMeta, sources, b.ProjectDir, filepath.Join(b.ProjectDir, "obj", "test"), extraLibs)
}

func (b *Ctx) resolveAndBuildDeps(ctx context.Context, m *manifest.Manifest, family toolchain.Family) (map[string]depbuild.Metadata, error) {
	fetcher := b.fetcherOrDefault()
	eng := &graph.Engine{
		Fetcher:  fetcher,
		Profile:  b.Profile,
		Compiler: m.Build.Compiler,
		Arch:     b.arch(),
	}
	res, err := eng.Resolve(ctx, m.Dependencies)
	if err != nil {
		return nil, err
	}

	builder := &depbuild.Builder{
		Family:   family,
		Compiler: m.Build.Compiler,
		Arch:     b.arch(),
		Jobs:     b.jobs(),
		Platform: flappy.HostPlatform(),
		SelfBuild: func(ctx context.Context, projectDir string, profile manifest.Profile) error {
			child := &Ctx{
				ProjectDir: projectDir,
				Profile:    profile,
				Arch:       b.Arch,
				Jobs:       b.Jobs,
				SkipDeps:   true,
				Log:        b.Log,
				fetcher:    b.fetcher,
				shim:       b.shim,
			}
			_, err := child.Build(ctx)
			return err
		},
	}
	return builder.BuildAll(ctx, b.Profile, res.Topo)
}

// buildArtifact discovers m.Build's own sources under srcDir and compiles
// and links them.
func (b *Ctx) buildArtifact(ctx context.Context, bld manifest.Build, family toolchain.Family, shim *toolchain.Shim, depMeta map[string]depbuild.Metadata, srcDirRel, objDir string) (*Result, error) {
	srcDir := filepath.Join(b.ProjectDir, srcDirRel)
	sources, err := orchestrator.DiscoverSources(srcDir, bld.Language)
	if err != nil {
		return nil, err
	}
	return b.buildFromSources(ctx, bld, family, shim, depMeta, sources, srcDir, objDir, nil)
}

func (b *Ctx) buildFromSources(ctx context.Context, bld manifest.Build, family toolchain.Family, shim *toolchain.Shim, depMeta map[string]depbuild.Metadata, sources []string, srcRoot, objDir string, extraLibs []string) (*Result, error) {
	if !filepath.IsAbs(bld.Output) {
		bld.Output = filepath.Join(b.ProjectDir, bld.Output)
	}

	arch := b.arch()
	units, err := orchestrator.CompileSet(objDir, srcRoot, sources, arch, b.Profile, family)
	if err != nil {
		return nil, err
	}

	includes, libDirs, libs := depIncludesAndLibs(depMeta)

	argsFor := func(u orchestrator.CompileUnit) toolchain.CompileArgs {
		return toolchain.CompileArgs{
			Family:     family,
			Profile:    b.Profile,
			Arch:       arch,
			Language:   bld.Language,
			Standard:   bld.Standard,
			Includes:   includes,
			Defines:    bld.Defines,
			ExtraFlags: append(libFlagsAsIncludes(family, libDirs), bld.Flags...),
			Source:     u.Source,
			Object:     u.Object,
		}
	}

	if _, err := orchestrator.CompileAll(ctx, b.jobs(), bld.Compiler, family, arch, shim, units, argsFor); err != nil {
		return nil, err
	}

	var records []compiledb.Record
	for _, u := range units {
		name, args := bld.Compiler, toolchain.Assemble(argsFor(u))
		if shim != nil {
			name, args, err = shim.Wrap(family, arch, name, args)
			if err != nil {
				return nil, err
			}
		}
		records = append(records, compiledb.Record{
			Directory: b.ProjectDir,
			Command:   name + " " + joinArgs(args),
			File:      u.Source,
		})
	}

	allObjects := make([]string, len(units))
	for i, u := range units {
		allObjects[i] = u.Object
	}

	allLibs := append(append([]string{}, libs...), extraLibs...)
	output, err := orchestrator.Link(ctx, bld, b.Profile, family, flappy.HostPlatform(), shim, allObjects, allLibs)
	if err != nil {
		return nil, err
	}

	if bld.Type == manifest.TypeExe || bld.Type == manifest.TypeShared {
		if err := orchestrator.CopyRuntimeArtifacts(filepath.Dir(output), depMeta); err != nil {
			return nil, err
		}
	}

	return &Result{Output: output, Objects: allObjects, CompileDB: records}, nil
}

func depIncludesAndLibs(depMeta map[string]depbuild.Metadata) (includes, libDirs, libs []string) {
	names := make([]string, 0, len(depMeta))
	for name := range depMeta {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		meta := depMeta[name]
		includes = append(includes, meta.IncludeDirs...)
		libDirs = append(libDirs, meta.LibDirs...)
		libs = append(libs, meta.Libs...)
	}
	return includes, libDirs, libs
}

func collectLibs(depMeta map[string]depbuild.Metadata) []string {
	_, _, libs := depIncludesAndLibs(depMeta)
	return libs
}

// libFlagsAsIncludes turns dependency lib directories into linker
// search-path flags (-L or /LIBPATH:). The depbuild.Metadata.Libs entries
// are already full paths from ComputeMetadata, so this is a defensive
// complement, not the primary mechanism.
func libFlagsAsIncludes(family toolchain.Family, libDirs []string) []string {
	var flags []string
	for _, dir := range libDirs {
		if family == toolchain.MSVC {
			flags = append(flags, "/LIBPATH:"+dir)
		} else {
			flags = append(flags, "-L"+dir)
		}
	}
	return flags
}

func joinArgs(args []string) string {
	var out string
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func expandTestGlobs(projectDir string, globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(projectDir, g))
		if err != nil {
			return nil, xerrors.Errorf("test source glob %q: %w", g, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

