package config

// Package describes one installable build target from the manifest.
// - Repo: git URL (or archive URL) of the source.
// - BuildCommand: shell command run inside the cached source tree.
// - BinPath: path of the produced binary, relative to the source tree.
// - Symlink: name exposed under the system binary directory.
type Package struct {
	Repo         string `json:"repo"`
	BuildCommand string `json:"build_command"`
	BinPath      string `json:"bin_path"`
	Symlink      string `json:"symlink"`
}

// PackageList is the top-level manifest structure, keyed by package name.
// Package names are matched exactly; property names are matched case-insensitively.
type PackageList struct {
	Packages map[string]Package `json:"packages"`
}
