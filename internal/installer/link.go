package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dotpkg/internal/logger"
)

// EscalateMode controls whether the link step is prefixed with sudo.
// It implements pflag.Value so it can be bound directly to a command-line flag.
type EscalateMode string

const (
	// EscalateAuto uses sudo only when not root and the bin directory is not writable.
	EscalateAuto EscalateMode = "auto"
	// EscalateAlways always prefixes the link command with sudo.
	EscalateAlways EscalateMode = "always"
	// EscalateNever never uses sudo.
	EscalateNever EscalateMode = "never"
)

func (m *EscalateMode) String() string { return string(*m) }

// Set parses a mode name.
func (m *EscalateMode) Set(value string) error {
	switch EscalateMode(value) {
	case EscalateAuto, EscalateAlways, EscalateNever:
		*m = EscalateMode(value)
		return nil
	default:
		return fmt.Errorf("invalid escalation mode %q (want auto, always or never)", value)
	}
}

// Type is the placeholder shown in flag help.
func (m *EscalateMode) Type() string { return "mode" }

// link force-creates BinDir/name pointing at binary and returns the link path.
func (i *Installer) link(ctx context.Context, binary, name string) (string, error) {
	target := filepath.Join(i.BinDir, name)
	logger.Info("[INFO] Creating symlink in %s\n", target)

	args := []string{"ln", "-sf", binary, target}
	if i.needsEscalation() {
		args = append([]string{"sudo"}, args...)
	}
	if err := i.Runner.Run(ctx, "", args[0], args[1:]...); err != nil {
		return "", fmt.Errorf("link failed: %w", err)
	}
	return target, nil
}

func (i *Installer) needsEscalation() bool {
	switch i.Escalate {
	case EscalateAlways:
		return true
	case EscalateNever:
		return false
	}
	if os.Geteuid() == 0 {
		return false
	}
	writable := dirWritable(i.BinDir)
	logger.Debug("[DEBUG] %s writable: %t\n", i.BinDir, writable)
	return !writable
}

// dirWritable checks dir by creating and removing a temporary file.
func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".dotpkg-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
