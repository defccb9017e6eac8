package depbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
)

const stateFileName = ".flappy_build_state"

// stateHash computes the hash over (git_commit, build_cmd, defines) that
// the incremental state file stores, per spec.md §3.
func stateHash(commit, buildCmd string, defines []string) string {
	h := sha256.New()
	h.Write([]byte(commit))
	h.Write([]byte{0})
	h.Write([]byte(buildCmd))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(defines, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// readState returns the hex hash stored in dir's state file, or "" if the
// file does not exist.
func readState(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// writeState atomically overwrites dir's state file with hash.
func writeState(dir, hash string) error {
	return renameio.WriteFile(filepath.Join(dir, stateFileName), []byte(hash+"\n"), 0644)
}

// upToDate reports whether dir's dependency build is already current for
// the given (commit, buildCmd, defines) triple.
func upToDate(dir, commit, buildCmd string, defines []string) (bool, string, error) {
	want := stateHash(commit, buildCmd, defines)
	got, err := readState(dir)
	if err != nil {
		return false, want, err
	}
	return got != "" && got == want, want, nil
}
