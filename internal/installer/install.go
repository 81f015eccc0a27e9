// Package installer fetches, builds and links a single package from the manifest.
package installer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"dotpkg/internal/config"
	"dotpkg/internal/logger"
)

// DefaultBinDir is where symlinks to built binaries are created.
const DefaultBinDir = "/usr/local/bin"

// CommandRunner executes external processes on behalf of the installer.
// runner.Runner is the production implementation.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	Shell(ctx context.Context, dir, script string) error
}

// Installer performs clone -> build -> verify -> link for one package.
// The process working directory is never changed; every step runs with an
// explicit directory instead.
type Installer struct {
	CacheRoot  string // Absolute directory holding one source tree per package
	BinDir     string // Directory receiving the symlink
	Escalate   EscalateMode
	Runner     CommandRunner
	HTTPClient *http.Client // Used for archive sources
}

// New returns an Installer caching sources under cacheRoot and linking into binDir.
// Relative paths are resolved against the current working directory.
func New(cacheRoot, binDir string, r CommandRunner) (*Installer, error) {
	absCache, err := filepath.Abs(cacheRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory %s: %w", cacheRoot, err)
	}
	if binDir == "" {
		binDir = DefaultBinDir
	}
	return &Installer{
		CacheRoot:  absCache,
		BinDir:     binDir,
		Escalate:   EscalateAuto,
		Runner:     r,
		HTTPClient: http.DefaultClient,
	}, nil
}

// Validate rejects packages that cannot be installed before any process is spawned.
func Validate(pkg config.Package) error {
	if strings.TrimSpace(pkg.Repo) == "" {
		return invalidPackage("repository URL is missing")
	}
	if strings.TrimSpace(pkg.BuildCommand) == "" {
		return invalidPackage("build command is missing")
	}
	if strings.ContainsRune(pkg.Symlink, '/') || pkg.Symlink == "." || pkg.Symlink == ".." {
		return invalidPackage("symlink %q must be a plain file name", pkg.Symlink)
	}
	return nil
}

// RepoName derives the cache directory name from a repository URL: the last
// path segment with a trailing ".git" or archive extension removed.
func RepoName(repo string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repo), "/")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}

	name := trimmed
	if ext := archiveExt(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	} else {
		name = strings.TrimSuffix(name, ".git")
	}

	if name == "" || name == "." || name == ".." {
		return "", invalidPackage("cannot derive a directory name from repository %q", repo)
	}
	return name, nil
}

// Install runs every installation step for pkg in order and returns the path
// of the created symlink. The first failing step aborts the rest; the cached
// source tree is left in place for the next attempt.
func (i *Installer) Install(ctx context.Context, pkg config.Package) (string, error) {
	if err := Validate(pkg); err != nil {
		return "", err
	}

	name, err := RepoName(pkg.Repo)
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(i.CacheRoot, name)
	logger.Debug("[DEBUG] Cache directory for %s: %s\n", pkg.Repo, cacheDir)

	// 1. Fetch sources unless already cached
	if _, err := os.Stat(cacheDir); err == nil {
		logger.Info("[INFO] Using cached sources in %s\n", cacheDir)
	} else {
		if err := i.fetch(ctx, pkg.Repo, cacheDir); err != nil {
			return "", err
		}
	}

	// 2. Build inside the cached tree
	logger.Info("[INFO] Building project...\n")
	if err := i.Runner.Shell(ctx, cacheDir, pkg.BuildCommand); err != nil {
		return "", fmt.Errorf("build failed: %w", err)
	}

	// 3. Verify the produced binary
	binary, err := resolveBinary(cacheDir, pkg.BinPath)
	if err != nil {
		return "", err
	}
	logger.Debug("[DEBUG] Built binary: %s\n", binary)

	// 4. Expose it under BinDir
	return i.link(ctx, binary, linkName(pkg))
}

// resolveBinary resolves binPath against cacheDir and checks that a regular file exists there.
func resolveBinary(cacheDir, binPath string) (string, error) {
	full := binPath
	if !filepath.IsAbs(full) {
		full = filepath.Join(cacheDir, binPath)
	}
	full = filepath.Clean(full)

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", &BinaryNotFoundError{Path: full}
	}
	return full, nil
}

// linkName is the symlink name, falling back to the binary's base name.
func linkName(pkg config.Package) string {
	if pkg.Symlink != "" {
		return pkg.Symlink
	}
	return filepath.Base(pkg.BinPath)
}
