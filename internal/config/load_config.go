package config

import (
	"encoding/json" // Case-insensitive decoding of the standardized manifest
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dotpkg/internal/logger"

	"github.com/tailscale/hujson" // Strips comments and trailing commas from JSON
	"gopkg.in/yaml.v3"
)

// FileName is the manifest base name looked up by DefaultPath.
const FileName = "pkg-list.json"

// yamlFileName is the YAML variant of the manifest, checked after FileName in each directory.
const yamlFileName = "pkg-list.yaml"

// DefaultPath resolves the manifest location from the directory of the running
// executable and the current working directory.
func DefaultPath() string {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		exeDir = filepath.Dir(exe)
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	return Locate(exeDir, workDir)
}

// Locate returns the first existing manifest among, in order:
// <exeDir>/pkg-list.json, <workDir>/pkg-list.json, <exeDir>/pkg-list.yaml, <workDir>/pkg-list.yaml.
// JSON manifests always win over YAML ones. When none exist, the working-directory
// JSON path is returned so Load can report it missing.
func Locate(exeDir, workDir string) string {
	var candidates []string
	for _, name := range []string{FileName, yamlFileName} {
		for _, dir := range []string{exeDir, workDir} {
			if dir == "" {
				continue
			}
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			logger.Debug("[DEBUG] Using configuration file %s\n", candidate)
			return candidate
		}
		logger.Debug("[DEBUG] No configuration file at %s\n", candidate)
	}
	return filepath.Join(workDir, FileName)
}

// Load reads and parses the manifest at path.
// JSON manifests may contain comments and trailing commas. Files ending in
// .yaml or .yml are parsed as YAML. Property names are matched case-insensitively
// in both formats. A manifest without packages is rejected with ErrEmptyConfig.
func Load(path string) (*PackageList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("error reading configuration %s: %w", path, err)
	}

	var list PackageList
	if isYAML(path) {
		err = decodeYAML(raw, &list)
	} else {
		err = decodeJSON(raw, &list)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if len(list.Packages) == 0 {
		return nil, ErrEmptyConfig
	}
	logger.Debug("[DEBUG] Loaded %d packages from %s\n", len(list.Packages), path)
	return &list, nil
}

// Names returns all package names in sorted order.
func (l *PackageList) Names() []string {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the package registered under name. The match is exact.
func (l *PackageList) Lookup(name string) (Package, error) {
	pkg, ok := l.Packages[name]
	if !ok {
		return Package{}, &PackageNotFoundError{Name: name, Available: l.Names()}
	}
	return pkg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// decodeJSON standardizes JSON-with-comments into plain JSON before decoding.
// encoding/json already matches object keys to struct fields case-insensitively.
func decodeJSON(raw []byte, v *PackageList) error {
	std, err := hujson.Standardize(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(std, v)
}

// decodeYAML parses YAML into a generic tree and routes it through encoding/json,
// so both formats share the same key matching rules. Scalars are kept as their
// literal text: `build_command: true` is the command "true" and `123:` is a
// package named "123".
func decodeYAML(raw []byte, v *PackageList) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	tree, err := yamlTree(&doc)
	if err != nil {
		return err
	}
	if tree == nil {
		return nil
	}
	buf, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("unsupported YAML structure: %w", err)
	}
	return json.Unmarshal(buf, v)
}

func yamlTree(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlTree(node.Content[0])
	case yaml.AliasNode:
		return yamlTree(node.Alias)
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := yamlTree(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.MappingNode:
		fields := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			value, err := yamlTree(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			fields[key.Value] = value
		}
		return fields, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
}
