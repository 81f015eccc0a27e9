package installer_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"dotpkg/internal/config"
	"dotpkg/internal/installer"
	"dotpkg/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveEntry struct {
	name string
	body string
	mode int64
	dir  bool
	link string
}

func tarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		case e.link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		hdr.SetMode(os.FileMode(e.mode))
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractArchive_TarGzUnwrapsTopLevel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tool-1.0.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "tool-1.0/", dir: true, mode: 0o755},
		{name: "tool-1.0/Makefile", body: "all:\n", mode: 0o644},
		{name: "tool-1.0/bin/tool", body: "#!/bin/sh\n", mode: 0o755},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	root, err := installer.ExtractArchive(src, dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "tool-1.0"), root)

	info, err := os.Stat(filepath.Join(root, "bin", "tool"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "executable bit preserved")
	assert.FileExists(t, filepath.Join(root, "Makefile"))
}

func TestExtractArchive_ZipWithoutTopLevel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "flat.zip")
	require.NoError(t, os.WriteFile(src, zipBytes(t, []archiveEntry{
		{name: "main.c", body: "int main(){}", mode: 0o644},
		{name: "build.sh", body: "#!/bin/sh\n", mode: 0o755},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	root, err := installer.ExtractArchive(src, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, root)
	assert.FileExists(t, filepath.Join(dest, "main.c"))
	assert.FileExists(t, filepath.Join(dest, "build.sh"))
}

func TestExtractArchive_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "../escaped", body: "x", mode: 0o644},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	_, err := installer.ExtractArchive(src, dest)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escaped"))
}

func TestExtractArchive_RejectsWritesThroughSymlinkChain(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "chain.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "x", link: "."},
		{name: "y", link: "x/.."},
		{name: "y/escaped", body: "x", mode: 0o644},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	_, err := installer.ExtractArchive(src, dest)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escaped"))
}

func TestExtractArchive_RejectsFileBelowSymlinkedDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "linked.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "src/", dir: true, mode: 0o755},
		{name: "alias", link: "src"},
		{name: "alias/file", body: "x", mode: 0o644},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	_, err := installer.ExtractArchive(src, dest)
	assert.ErrorContains(t, err, "passes through symlink")
}

func TestExtractArchive_KeepsInternalSymlinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pkg.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "pkg/", dir: true, mode: 0o755},
		{name: "pkg/bin/tool-1", body: "#!/bin/sh\n", mode: 0o755},
		{name: "pkg/bin/tool", link: "tool-1"},
	}), 0o644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))

	root, err := installer.ExtractArchive(src, dest)
	require.NoError(t, err)
	got, err := os.Readlink(filepath.Join(root, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "tool-1", got)
}

func TestExtractArchive_Formats(t *testing.T) {
	for _, fixture := range []string{"tool-3.0.tar.xz", "tool-3.0.tar.bz2", "tool-3.0.7z"} {
		t.Run(fixture, func(t *testing.T) {
			dest := t.TempDir()

			root, err := installer.ExtractArchive(filepath.Join("testdata", fixture), dest)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dest, "tool-3.0"), root)

			readme, err := os.ReadFile(filepath.Join(root, "README"))
			require.NoError(t, err)
			assert.Equal(t, "tool 3.0\n", string(readme))

			info, err := os.Stat(filepath.Join(root, "bin", "tool"))
			require.NoError(t, err)
			assert.NotZero(t, info.Mode().Perm()&0o100, "executable bit preserved")
		})
	}
}

func TestExtractArchive_UnsupportedFormat(t *testing.T) {
	_, err := installer.ExtractArchive("source.rar", t.TempDir())
	assert.ErrorContains(t, err, "unsupported archive format")
}

func TestInstall_LocalArchiveSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "tool-1.0.tar.gz")
	require.NoError(t, os.WriteFile(src, tarGz(t, []archiveEntry{
		{name: "tool-1.0/", dir: true, mode: 0o755},
		{name: "tool-1.0/tool.sh", body: "#!/bin/sh\necho tool\n", mode: 0o755},
	}), 0o644))

	inst, err := installer.New(filepath.Join(t.TempDir(), "cache"), t.TempDir(), runner.New(&bytes.Buffer{}))
	require.NoError(t, err)
	inst.Escalate = installer.EscalateNever

	target, err := inst.Install(context.Background(), config.Package{
		Repo:         src,
		BuildCommand: "cp tool.sh tool",
		BinPath:      "tool",
		Symlink:      "tool",
	})
	require.NoError(t, err)

	dest, err := os.Readlink(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inst.CacheRoot, "tool-1.0", "tool"), dest)

	// Only the unpacked tree remains in the cache root.
	entries, err := os.ReadDir(inst.CacheRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tool-1.0", entries[0].Name())
}

func TestInstall_RemoteArchiveSource(t *testing.T) {
	payload := zipBytes(t, []archiveEntry{
		{name: "app/build.sh", body: "#!/bin/sh\ntouch app\nchmod +x app\n", mode: 0o755},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/app.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	inst, err := installer.New(filepath.Join(t.TempDir(), "cache"), t.TempDir(), runner.New(&bytes.Buffer{}))
	require.NoError(t, err)
	inst.Escalate = installer.EscalateNever
	inst.HTTPClient = srv.Client()

	target, err := inst.Install(context.Background(), config.Package{
		Repo:         srv.URL + "/releases/app.zip",
		BuildCommand: "sh build.sh",
		BinPath:      "app",
		Symlink:      "app",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inst.BinDir, "app"), target)
	assert.FileExists(t, filepath.Join(inst.CacheRoot, "app", "app"))
}

func TestInstall_RemoteArchiveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	inst, err := installer.New(filepath.Join(t.TempDir(), "cache"), t.TempDir(), runner.New(&bytes.Buffer{}))
	require.NoError(t, err)
	inst.HTTPClient = srv.Client()

	_, err = inst.Install(context.Background(), config.Package{
		Repo: srv.URL + "/missing.tar.gz", BuildCommand: "true", BinPath: "x",
	})
	require.ErrorContains(t, err, "HTTP status 404")
	assert.NoDirExists(t, filepath.Join(inst.CacheRoot, "missing"))
}
