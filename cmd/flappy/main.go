// Command flappy is a thin entrypoint over the core build system: flag
// parsing and verb dispatch only. The interactive surface spec.md §1
// treats as an external collaborator (wizards, colored output, manifest
// scaffolding, the flappy.lock writer, cache clean) is intentionally not
// implemented here; this binary exists so the module is a runnable
// repository, the way cmd/distri/distri.go is the thin verb-dispatch
// wrapper around distri's internal/build.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/flappy-build/flappy"
	"github.com/flappy-build/flappy/internal/build"
	"github.com/flappy-build/flappy/internal/cleanup"
	"github.com/flappy-build/flappy/internal/manifest"
)

func funcmain() error {
	profile := flag.String("profile", "", "custom [build.<profile>] name to apply, in addition to -mode")
	mode := flag.String("mode", "debug", "build mode: debug or release")
	jobs := flag.Int("jobs", 0, "parallel compile job limit (0 = number of CPUs)")
	dir := flag.String("dir", ".", "project directory containing flappy.toml")
	flag.Parse()

	verb := "build"
	if args := flag.Args(); len(args) > 0 {
		verb = args[0]
	}

	m, ok := manifest.ParseProfile(*mode)
	if !ok {
		return fmt.Errorf("-mode must be %q or %q, got %q", "debug", "release", *mode)
	}

	ctx, canc := flappy.InterruptibleContext()
	defer canc()
	defer cleanup.Run()

	b := &build.Ctx{
		ProjectDir:  *dir,
		Profile:     m,
		ProfileName: *profile,
		Jobs:        *jobs,
	}

	switch verb {
	case "build":
		res, err := b.Build(ctx)
		if err != nil {
			return err
		}
		fmt.Println(res.Output)
	case "test":
		res, err := b.Build(ctx)
		if err != nil {
			return err
		}
		testRes, err := b.BuildTests(ctx, res.Manifest, res.DepMeta, res.Output)
		if err != nil {
			return err
		}
		fmt.Println(testRes.Output)
	default:
		return fmt.Errorf("unknown command %q; supported: build, test", verb)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
