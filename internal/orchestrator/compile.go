package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/flappy-build/flappy/internal/manifest"
	"github.com/flappy-build/flappy/internal/procshim"
	"github.com/flappy-build/flappy/internal/toolchain"
)

// ObjectPath computes obj/<arch>/<profile>/<relpath>.{o|obj}, mirroring the
// source tree under srcRoot to avoid name collisions (spec.md §3). outDir is
// the object root itself (the project's obj/ directory, or obj/test).
func ObjectPath(outDir, srcRoot, source, arch string, profile manifest.Profile, family toolchain.Family) (string, error) {
	rel, err := filepath.Rel(srcRoot, source)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, arch, profile.String(), rel+"."+toolchain.ObjectSuffix(family)), nil
}

func upToDate(object, source string) bool {
	objInfo, err := os.Stat(object)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(source)
	if err != nil {
		return false
	}
	return !objInfo.ModTime().Before(srcInfo.ModTime())
}

// CompileUnit is one translation unit's inputs, already resolved to an
// object path.
type CompileUnit struct {
	Source   string
	Object   string
	IsModule bool // C++ interface/module unit (.ixx/.cppm); see CompileAll
}

// CompileSet splits sources into a units slice with computed object paths.
func CompileSet(outDir, srcRoot string, sources []string, arch string, profile manifest.Profile, family toolchain.Family) ([]CompileUnit, error) {
	units := make([]CompileUnit, 0, len(sources))
	for _, src := range sources {
		obj, err := ObjectPath(outDir, srcRoot, src, arch, profile, family)
		if err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(src))
		units = append(units, CompileUnit{Source: src, Object: obj, IsModule: isModuleUnit(ext)})
	}
	return units, nil
}

// CompileAll compiles every unit that is not up to date, in parallel,
// bounded by jobs. Module/interface units (IsModule) are compiled to
// completion in their own bounded group before any implementation unit is
// launched, honoring spec.md §4.5/§5's ordering guarantee that module
// translation units finish before any implementation unit begins. It
// returns the first failure, if any; within each group all launched
// compiles are still awaited (their results beyond the first failure are
// discarded).
func CompileAll(ctx context.Context, jobs int, compiler string, family toolchain.Family, arch string, shim *toolchain.Shim, units []CompileUnit, argsFor func(CompileUnit) toolchain.CompileArgs) ([]CompileUnit, error) {
	var modules, impls []CompileUnit
	for _, u := range units {
		if u.IsModule {
			modules = append(modules, u)
		} else {
			impls = append(impls, u)
		}
	}

	compiledModules, err := compileGroup(ctx, jobs, compiler, family, arch, shim, modules, argsFor)
	if err != nil {
		return nil, err
	}
	compiledImpls, err := compileGroup(ctx, jobs, compiler, family, arch, shim, impls, argsFor)
	if err != nil {
		return nil, err
	}
	return append(compiledModules, compiledImpls...), nil
}

// compileGroup compiles one group of units (all modules, or all
// implementation units) to completion, in parallel, bounded by jobs.
func compileGroup(ctx context.Context, jobs int, compiler string, family toolchain.Family, arch string, shim *toolchain.Shim, units []CompileUnit, argsFor func(CompileUnit) toolchain.CompileArgs) ([]CompileUnit, error) {
	eg, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		eg.SetLimit(jobs)
	}

	var compiled []CompileUnit
	for _, u := range units {
		if upToDate(u.Object, u.Source) {
			continue
		}
		u := u
		compiled = append(compiled, u)
		eg.Go(func() error {
			if err := os.MkdirAll(filepath.Dir(u.Object), 0755); err != nil {
				return err
			}
			args := toolchain.Assemble(argsFor(u))
			name := compiler
			if shim != nil {
				var err error
				name, args, err = shim.Wrap(family, arch, name, args)
				if err != nil {
					return xerrors.Errorf("compile %s: %w", u.Source, err)
				}
			}
			if _, err := procshim.Run(ctx, "", nil, name, args...); err != nil {
				return xerrors.Errorf("compile %s: %w", u.Source, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return compiled, nil
}
