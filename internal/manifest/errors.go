package manifest

import "golang.org/x/xerrors"

// ConfigError is returned for manifest syntax errors, a missing [build]
// table or required field, and dependency entries with zero or multiple
// sources. A field whose value has the wrong TOML type is not reported: it
// is treated as absent. Requesting a custom profile that the manifest does
// not define is not an error either: that layer is skipped.
type ConfigError struct {
	Path string // manifest file path, or "" if not file-specific
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return xerrors.Errorf("%s: %s: %w", e.Path, e.Msg, e.Err).Error()
		}
		return e.Path + ": " + e.Msg
	}
	if e.Err != nil {
		return xerrors.Errorf("%s: %w", e.Msg, e.Err).Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(path, format string, args ...interface{}) error {
	return &ConfigError{Path: path, Msg: xerrors.Errorf(format, args...).Error()}
}

// withPath fills in Path on a ConfigError that was constructed without
// knowing the manifest file it came from.
func withPath(err error, path string) error {
	if ce, ok := err.(*ConfigError); ok && ce.Path == "" {
		ce.Path = path
		return ce
	}
	return err
}
