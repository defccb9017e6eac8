package orchestrator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/xerrors"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/depbuild"
	"github.com/flappy-build/flappy/internal/manifest"
	"github.com/flappy-build/flappy/internal/procshim"
	"github.com/flappy-build/flappy/internal/toolchain"
)

// OutputPath returns base with the platform-native suffix for outputType
// appended (spec.md §4.5).
func OutputPath(base string, outputType manifest.OutputType, family toolchain.Family, platform flappy.Platform) string {
	return base + toolchain.OutputSuffix(outputType, family, platform)
}

func latestModTime(paths []string) (time.Time, error) {
	var latest time.Time
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}, err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}

// linkUpToDate reports whether output already exists and postdates every
// object file, per spec.md §4.5.
func linkUpToDate(output string, objects []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	latest, err := latestModTime(objects)
	if err != nil {
		return false
	}
	return outInfo.ModTime().After(latest) || outInfo.ModTime().Equal(latest)
}

// Link produces the final artifact from objects and resolved dependency
// libs, skipping the step when it is already current.
func Link(ctx context.Context, b manifest.Build, profile manifest.Profile, family toolchain.Family, platform flappy.Platform, shim *toolchain.Shim, objects []string, libs []string) (string, error) {
	output := OutputPath(b.Output, b.Type, family, platform)
	if linkUpToDate(output, objects) {
		return output, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", err
	}

	var name string
	var args []string
	if b.Type == manifest.TypeStatic {
		name, args = toolchain.ArchiveCommand(family, output, objects)
	} else {
		name, args = toolchain.LinkCommand(family, b.Compiler, b.Type, profile, output, objects, libs)
	}
	if shim != nil {
		var err error
		name, args, err = shim.Wrap(family, b.Arch, name, args)
		if err != nil {
			return "", xerrors.Errorf("link %s: %w", output, err)
		}
	}
	if _, err := procshim.Run(ctx, "", nil, name, args...); err != nil {
		return "", xerrors.Errorf("link %s: %w", output, err)
	}
	return output, nil
}

// CopyRuntimeArtifacts copies every runtime library from deps into
// outputDir, skipping files that already exist and are not older than
// their source (spec.md §4.5 step 4).
func CopyRuntimeArtifacts(outputDir string, deps map[string]depbuild.Metadata) error {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	for _, name := range names {
		for _, lib := range deps[name].RuntimeLibs {
			dest := filepath.Join(outputDir, filepath.Base(lib))
			if upToDate(dest, lib) {
				continue
			}
			if err := copyFile(lib, dest); err != nil {
				return xerrors.Errorf("copy runtime artifact %s: %w", lib, err)
			}
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
