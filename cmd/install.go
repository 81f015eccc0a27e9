package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"dotpkg/internal/config"
	"dotpkg/internal/installer"
	"dotpkg/internal/logger"
	"dotpkg/internal/runner"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// cacheDirName is the directory, under the invocation directory, holding fetched sources.
const cacheDirName = "cache"

// installOptions holds the flags of the install command.
type installOptions struct {
	configPath string // Explicit manifest path; empty means discovery
	binDir     string
	escalate   installer.EscalateMode
}

// newInstallCmd builds `dotpkg install <package-name>`.
func newInstallCmd() *cobra.Command {
	opts := &installOptions{escalate: installer.EscalateAuto}

	installCmd := &cobra.Command{
		Use:   "install <package-name>",
		Short: "Clone, build and link a package from pkg-list.json",
		// Arity is checked in Run so a wrong call prints usage instead of an error.
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				printUsage()
				return
			}
			installPackage(cmd.Context(), opts, args[0])
		},
	}

	installCmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the package manifest (default: pkg-list.json next to the executable, then in the working directory)")
	installCmd.Flags().StringVar(&opts.binDir, "bin-dir", installer.DefaultBinDir, "Directory receiving the binary symlink")
	installCmd.Flags().Var(&opts.escalate, "escalate", "Use sudo for the link step: auto, always or never")
	return installCmd
}

// installPackage loads the manifest, looks up name and installs it.
// Every failure is reported here and never propagated to the caller.
func installPackage(ctx context.Context, opts *installOptions, name string) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	list, err := config.Load(path)
	if err != nil {
		reportConfigError(err)
		return
	}

	pkg, err := list.Lookup(name)
	if err != nil {
		var notFound *config.PackageNotFoundError
		if errors.As(err, &notFound) {
			logger.Error("Error: Package '%s' not found in configuration.\n", notFound.Name)
			logger.Plain("Available packages: %s\n", strings.Join(notFound.Available, ", "))
			return
		}
		logger.Error("Error: %v\n", err)
		return
	}

	workDir, err := os.Getwd()
	if err != nil {
		logger.Error("Error: cannot determine working directory: %v\n", err)
		return
	}

	inst, err := installer.New(filepath.Join(workDir, cacheDirName), opts.binDir, runner.New(color.Output))
	if err != nil {
		logger.Error("Error: %v\n", err)
		return
	}
	inst.Escalate = opts.escalate

	logger.Info("[INFO] Installing package: %s\n", name)
	target, err := inst.Install(ctx, pkg)
	if err != nil {
		logger.Error("[ERROR] Installation failed: %v\n", err)
		return
	}
	logger.Success("Successfully installed: %s -> %s\n", name, target)
}

func reportConfigError(err error) {
	var parseErr *config.ParseError
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		logger.Error("Error: %v\n", err)
	case errors.As(err, &parseErr):
		logger.Error("Error parsing configuration: %v\n", parseErr.Err)
	case errors.Is(err, config.ErrEmptyConfig):
		logger.Error("Error: No packages found in configuration file\n")
	default:
		logger.Error("Error reading configuration: %v\n", err)
	}
}
