package manifest

import "github.com/flappy-build/flappy"

// applyBuildLayer overwrites scalar fields present in layer and appends
// list fields present in layer, onto eff. Sub-tables (mode/profile/platform
// names) are ignored here; the caller walks to them explicitly.
func applyBuildLayer(eff *Build, layer rawTable) {
	if layer == nil {
		return
	}
	if v, ok := layer.str("compiler"); ok {
		eff.Compiler = v
	}
	if v, ok := layer.str("language"); ok {
		eff.Language = Language(v)
	}
	if v, ok := layer.str("standard"); ok {
		eff.Standard = v
	}
	if v, ok := layer.str("output"); ok {
		eff.Output = v
	}
	if v, ok := layer.str("arch"); ok {
		eff.Arch = v
	}
	if v, ok := layer.str("type"); ok {
		eff.Type = NormalizeOutputType(v)
	}
	if v, ok := layer.strSlice("defines"); ok {
		eff.Defines = append(eff.Defines, v...)
	}
	if v, ok := layer.strSlice("flags"); ok {
		eff.Flags = append(eff.Flags, v...)
	}
}

// resolveBuild implements the six-layer merge of §4.1: base, mode,
// profile, profile.mode, platform (or profile.platform), platform.mode (or
// profile.platform.mode).
func resolveBuild(buildRaw rawTable, profileName string, mode Profile, platform flappy.Platform) (Build, error) {
	var eff Build
	modeKey := mode.String()
	platformKey := string(platform)

	// 1. base
	applyBuildLayer(&eff, buildRaw)

	// 2. build.<mode>
	applyBuildLayer(&eff, buildRaw.table(modeKey))

	var profileDefined bool

	var profileTable rawTable
	if profileName != "" {
		profileTable = buildRaw.table(profileName)
		if profileTable != nil {
			// 3. build.<profile>
			applyBuildLayer(&eff, profileTable)
			profileDefined = true
			// 4. build.<profile>.<mode>
			if sub := profileTable.table(modeKey); sub != nil {
				applyBuildLayer(&eff, sub)
				profileDefined = true
			}
		}
	}

	// 5. build.<platform> or build.<profile>.<platform>
	var platformTable rawTable
	if profileTable != nil {
		platformTable = profileTable.table(platformKey)
	}
	if platformTable == nil {
		platformTable = buildRaw.table(platformKey)
	}
	if platformTable != nil {
		applyBuildLayer(&eff, platformTable)
		profileDefined = true
		// 6. build.<platform>.<mode> or build.<profile>.<platform>.<mode>
		if sub := platformTable.table(modeKey); sub != nil {
			applyBuildLayer(&eff, sub)
			profileDefined = true
		}
	}

	eff.IsProfileDefined = profileDefined

	if eff.Compiler == "" {
		return eff, configErrorf("", "build.compiler is required")
	}
	if eff.Language != LangC && eff.Language != LangCpp {
		return eff, configErrorf("", "build.language must be %q or %q, got %q", LangC, LangCpp, eff.Language)
	}
	if eff.Type == "" {
		return eff, configErrorf("", "build.type is required")
	}
	return eff, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// applyDepLayer overwrites scalar/source fields present in layer and
// appends list/append fields present in layer, onto dep.
func applyDepLayer(dep *Dependency, layer rawTable) error {
	if layer == nil {
		return nil
	}
	if v, ok := layer.strSlice("defines"); ok {
		dep.Defines = append(dep.Defines, v...)
	}
	if v, ok := layer.strSlice("extra_dependencies"); ok {
		dep.ExtraDependencies = append(dep.ExtraDependencies, v...)
	}
	if v, ok := layer.str("build_cmd"); ok {
		dep.BuildCmd = v
	}
	if v, ok := layer.strSlice("include_dirs"); ok {
		dep.IncludeDirs = v
	}
	if v, ok := layer.strSlice("lib_dirs"); ok {
		dep.LibDirs = v
	}
	if v, ok := layer.strSlice("libs"); ok {
		dep.Libs = v
	}

	git, hasGit := layer.str("git")
	url, hasURL := layer.str("url")
	path, hasPath := layer.str("path")
	if count := boolToInt(hasGit) + boolToInt(hasURL) + boolToInt(hasPath); count > 1 {
		return configErrorf("", "dependency %q: specify exactly one of git/url/path, not %d", dep.Name, count)
	}
	if hasGit {
		dep.Source = Source{Kind: SourceGit, GitURL: git}
		if tag, ok := layer.str("tag"); ok {
			dep.Source.GitTag = tag
		}
	} else if hasURL {
		dep.Source = Source{Kind: SourceHttp, HttpURL: url}
	} else if hasPath {
		dep.Source = Source{Kind: SourceLocal, LocalPath: path}
	} else if tag, ok := layer.str("tag"); ok && dep.Source.Kind == SourceGit {
		// A mode/platform layer may override only the tag of an
		// already-established git source.
		dep.Source.GitTag = tag
	}
	return nil
}

// resolveDependency merges a single [dependencies.<name>] table and its
// <mode>/<platform>/<platform>.<mode> sub-tables.
func resolveDependency(name string, depRaw rawTable, mode Profile, platform flappy.Platform) (Dependency, error) {
	dep := Dependency{Name: name}
	modeKey := mode.String()
	platformKey := string(platform)

	if err := applyDepLayer(&dep, depRaw); err != nil {
		return dep, err
	}
	if err := applyDepLayer(&dep, depRaw.table(modeKey)); err != nil {
		return dep, err
	}
	platformTable := depRaw.table(platformKey)
	if platformTable != nil {
		if err := applyDepLayer(&dep, platformTable); err != nil {
			return dep, err
		}
		if sub := platformTable.table(modeKey); sub != nil {
			if err := applyDepLayer(&dep, sub); err != nil {
				return dep, err
			}
		}
	}

	switch dep.Source.Kind {
	case SourceGit, SourceHttp, SourceLocal:
	default:
		return dep, configErrorf("", "dependency %q must specify exactly one of git/url/path", name)
	}
	return dep, nil
}
