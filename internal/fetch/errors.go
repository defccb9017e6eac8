package fetch

import "golang.org/x/xerrors"

// Error is returned for git clone/checkout failures, HTTP transport
// failures, and permission errors writing the cache.
type Error struct {
	Dependency string
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return xerrors.Errorf("fetch %s: %s: %w", e.Dependency, e.Msg, e.Err).Error()
	}
	return xerrors.Errorf("fetch %s: %s", e.Dependency, e.Msg).Error()
}

func (e *Error) Unwrap() error { return e.Err }
