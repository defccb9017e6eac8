package manifest

import (
	"github.com/flappy-build/flappy"
)

// Options controls which override layers Load resolves.
type Options struct {
	// Profile is an optional custom profile name requested via the CLI
	// (e.g. "ci"). Empty means no custom profile layer is applied.
	Profile string
	Mode    Profile
	// Platform defaults to flappy.HostPlatform() when zero.
	Platform flappy.Platform
}

// Load parses the manifest at path and resolves it into an effective
// Manifest for the given Options.
func Load(path string, opts Options) (*Manifest, error) {
	raw, md, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateRoot(path, raw); err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error()}
	}

	platform := opts.Platform
	if platform == "" {
		platform = flappy.HostPlatform()
	}

	m := &Manifest{}

	pkgRaw := raw.table("package")
	m.Package.Name, _ = pkgRaw.str("name")
	m.Package.Version, _ = pkgRaw.str("version")
	m.Package.Authors, _ = pkgRaw.strSlice("authors")
	if m.Package.Name == "" {
		return nil, &ConfigError{Path: path, Msg: "package.name is required"}
	}

	build, err := resolveBuild(raw.table("build"), opts.Profile, opts.Mode, platform)
	if err != nil {
		return nil, withPath(err, path)
	}
	m.Build = build

	if testRaw := raw.table("test"); testRaw != nil {
		t := &Test{}
		t.Sources, _ = testRaw.strSlice("sources")
		t.Output, _ = testRaw.str("output")
		t.Defines, _ = testRaw.strSlice("defines")
		t.Flags, _ = testRaw.strSlice("flags")
		m.Test = t
	}

	depsRaw := raw.table("dependencies")
	for _, name := range dependencyOrder(md) {
		dep, err := resolveDependency(name, depsRaw.table(name), opts.Mode, platform)
		if err != nil {
			return nil, withPath(err, path)
		}
		m.Dependencies = append(m.Dependencies, dep)
	}

	return m, nil
}
