// Package fetch maps a dependency specification to an on-disk location
// under a profile-partitioned global cache, per spec.md §4.2.
package fetch

import (
	"archive/tar"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"

	"github.com/flappy-build/flappy/internal/cleanup"
	"github.com/flappy-build/flappy/internal/manifest"
	"github.com/flappy-build/flappy/internal/procshim"
)

func xerrorsStatus(code int, detail string) error {
	if code == 0 {
		return xerrors.New(detail)
	}
	return xerrors.Errorf("unexpected HTTP status %d fetching %s", code, detail)
}

// Request is a fetch request as described in spec.md §4.2.
type Request struct {
	Dependency manifest.Dependency
	Profile    manifest.Profile
	Compiler   string
	Arch       string
}

// Result is the outcome of a successful fetch.
type Result struct {
	Dir      string // absolute directory containing the source tree
	Resolved string // commit SHA, URL hash, or "local"
}

// Fetcher resolves Requests to on-disk directories, memoising remote
// sources under CacheRoot.
type Fetcher struct {
	CacheRoot  string
	HTTPClient *http.Client

	// GithubAsset, when non-nil, is used instead of HTTPClient.Get for
	// Http sources whose URL looks like a GitHub release asset, so that
	// failures carry rate-limit detail (see SPEC_FULL.md's domain-stack
	// section on github.com/google/go-github).
	GithubAsset func(ctx context.Context, url string) (io.ReadCloser, error)
}

// New returns a Fetcher rooted at cacheRoot with a default HTTP client.
func New(cacheRoot string) *Fetcher {
	return &Fetcher{CacheRoot: cacheRoot, HTTPClient: http.DefaultClient}
}

// Locate returns the on-disk directory req would resolve to, without
// performing any fetch. Remote sources must already have been fetched
// once this invocation; it is used by the packages/ symlink farm, which
// runs after the Graph Engine and Dependency Builder have already
// populated the cache.
func (f *Fetcher) Locate(req Request) (string, error) {
	switch req.Dependency.Source.Kind {
	case manifest.SourceLocal:
		return filepath.Abs(req.Dependency.Source.LocalPath)
	case manifest.SourceGit, manifest.SourceHttp:
		return filepath.Join(f.CacheRoot, cacheKey(req.Dependency, req.Profile, req.Compiler, req.Arch)), nil
	default:
		return "", &Error{Dependency: req.Dependency.Name, Msg: "dependency has no source"}
	}
}

// Fetch resolves req to an on-disk directory, fetching it if necessary.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	switch req.Dependency.Source.Kind {
	case manifest.SourceLocal:
		return f.fetchLocal(req)
	case manifest.SourceGit:
		return f.fetchGit(ctx, req)
	case manifest.SourceHttp:
		return f.fetchHTTP(ctx, req)
	default:
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "dependency has no source"}
	}
}

func (f *Fetcher) fetchLocal(req Request) (Result, error) {
	path := req.Dependency.Source.LocalPath
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "resolving local path", Err: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "local path does not exist", Err: err}
	}
	return Result{Dir: abs, Resolved: "local"}, nil
}

func (f *Fetcher) fetchGit(ctx context.Context, req Request) (Result, error) {
	dir := filepath.Join(f.CacheRoot, cacheKey(req.Dependency, req.Profile, req.Compiler, req.Arch))
	src := req.Dependency.Source

	if _, err := os.Stat(dir); err == nil {
		// Re-fetch is a no-op when the directory already exists.
		sha, err := f.gitCommit(ctx, dir)
		if err != nil {
			return Result{}, err
		}
		return Result{Dir: dir, Resolved: sha}, nil
	}

	if err := os.MkdirAll(f.CacheRoot, 0755); err != nil {
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "creating cache root", Err: err}
	}
	token := cleanup.Register(func() error { return os.RemoveAll(dir) })
	defer cleanup.Forget(token)

	if _, err := procshim.Run(ctx, f.CacheRoot, nil, "git", "clone", src.GitURL, dir); err != nil {
		os.RemoveAll(dir)
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "git clone failed", Err: err}
	}
	if src.GitTag != "" {
		if _, err := procshim.Run(ctx, dir, nil, "git", "checkout", src.GitTag); err != nil {
			os.RemoveAll(dir)
			return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "git checkout failed", Err: err}
		}
	}
	sha, err := f.gitCommit(ctx, dir)
	if err != nil {
		return Result{}, err
	}
	return Result{Dir: dir, Resolved: sha}, nil
}

func (f *Fetcher) gitCommit(ctx context.Context, dir string) (string, error) {
	res, err := procshim.Run(ctx, dir, nil, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Msg: "reading commit SHA", Err: err}
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, req Request) (Result, error) {
	dir := filepath.Join(f.CacheRoot, cacheKey(req.Dependency, req.Profile, req.Compiler, req.Arch))
	src := req.Dependency.Source

	if _, err := os.Stat(dir); err == nil {
		return Result{Dir: dir, Resolved: urlHash(src.HttpURL)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "creating cache directory", Err: err}
	}
	token := cleanup.Register(func() error { return os.RemoveAll(dir) })
	defer cleanup.Forget(token)

	body, err := f.openHTTP(ctx, src.HttpURL)
	if err != nil {
		os.RemoveAll(dir)
		return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "HTTP GET failed", Err: err}
	}
	defer body.Close()

	if isArchive(src.HttpURL) {
		if err := unpackTarGz(body, dir); err != nil {
			os.RemoveAll(dir)
			return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "unpacking archive", Err: err}
		}
	} else {
		name := filepath.Base(src.HttpURL)
		if name == "" || name == "." || name == "/" {
			name = req.Dependency.Name + ".h"
		}
		out, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			os.RemoveAll(dir)
			return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "writing fetched file", Err: err}
		}
		_, copyErr := io.Copy(out, body)
		closeErr := out.Close()
		if copyErr != nil {
			os.RemoveAll(dir)
			return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "writing fetched file", Err: copyErr}
		}
		if closeErr != nil {
			os.RemoveAll(dir)
			return Result{}, &Error{Dependency: req.Dependency.Name, Msg: "writing fetched file", Err: closeErr}
		}
	}

	return Result{Dir: dir, Resolved: urlHash(src.HttpURL)}, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if f.GithubAsset != nil && isGithubReleaseAsset(rawURL) {
		return f.GithubAsset(ctx, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, xerrorsStatus(resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// isGithubReleaseAsset reports whether rawURL points at a GitHub release
// download, which the optional Fetcher.GithubAsset hook can resolve through
// the GitHub API instead of a bare GET.
func isGithubReleaseAsset(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == "github.com" && strings.Contains(u.Path, "/releases/download/")
}

func isArchive(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		u = &url.URL{Path: rawURL}
	}
	name := strings.ToLower(filepath.Base(u.Path))
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz")
}

// unpackTarGz extracts a gzip-compressed tarball into dir. flappy resolves
// the open question in spec.md §9 about archive HTTP sources by unpacking
// .tar.gz/.tgz dependencies (see DESIGN.md).
func unpackTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return xerrorsStatus(0, "archive entry escapes destination: "+hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
