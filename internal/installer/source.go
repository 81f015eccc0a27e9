package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dotpkg/internal/logger"
)

// archiveExtensions lists the source archive formats understood by ExtractArchive.
// Longer suffixes come first so ".tar.gz" wins over ".gz"-like partial matches.
var archiveExtensions = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".tar", ".zip", ".7z"}

// archiveExt returns the archive extension of name, or "" for anything else (git sources).
func archiveExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[len(name)-len(ext):]
		}
	}
	return ""
}

// fetch populates cacheDir from repo: archives are downloaded and unpacked,
// everything else is handed to git clone.
func (i *Installer) fetch(ctx context.Context, repo, cacheDir string) error {
	if err := os.MkdirAll(i.CacheRoot, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", i.CacheRoot, err)
	}

	if archiveExt(repo) != "" {
		logger.Info("[INFO] Fetching source archive: %s\n", repo)
		return i.fetchArchive(ctx, repo, cacheDir)
	}

	logger.Info("[INFO] Cloning repository: %s\n", repo)
	if err := i.Runner.Run(ctx, "", "git", "clone", "--", repo, cacheDir); err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}
	return nil
}

// fetchArchive unpacks the archive into a staging directory next to cacheDir and
// renames it into place only once extraction succeeded, so an interrupted
// download never leaves a half-populated cache entry behind.
func (i *Installer) fetchArchive(ctx context.Context, src, cacheDir string) error {
	archivePath, cleanup, err := i.localArchive(ctx, src)
	if err != nil {
		return err
	}
	defer cleanup()

	staging, err := os.MkdirTemp(i.CacheRoot, "."+filepath.Base(cacheDir)+"-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warn("[WARN] Failed to remove staging directory %s: %v\n", staging, err)
		}
	}()

	root, err := ExtractArchive(archivePath, staging)
	if err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	if err := os.Rename(root, cacheDir); err != nil {
		return fmt.Errorf("move sources into %s: %w", cacheDir, err)
	}
	logger.Debug("[DEBUG] Extracted %s to %s\n", src, cacheDir)
	return nil
}

// localArchive returns a filesystem path for src, downloading remote URLs into
// the cache root first. The returned cleanup removes any downloaded file.
func (i *Installer) localArchive(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}

	if path, ok := strings.CutPrefix(src, "file://"); ok {
		return path, noop, nil
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return src, noop, nil
	}

	// Keep the archive extension so ExtractArchive can pick the right reader.
	tmp, err := os.CreateTemp(i.CacheRoot, ".download-*-"+filepath.Base(src))
	if err != nil {
		return "", noop, fmt.Errorf("create download file: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(path) }

	if err := downloadFile(ctx, i.HTTPClient, src, path); err != nil {
		cleanup()
		return "", noop, err
	}
	return path, cleanup, nil
}
