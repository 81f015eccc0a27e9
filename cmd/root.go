package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dotpkg/internal/banner"
	"dotpkg/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// debug flag indicates whether debug logging should be enabled.
// It can be toggled via the `--debug` command-line flag.
var debug bool

// usage is printed for any invocation other than `install <package-name>`.
const usage = `Usage: dotpkg install <package-name>
Example: dotpkg install tux-print
`

// newRootCmd builds the base command for the CLI tool `dotpkg`.
// It prints the banner and initializes logging before any subcommand runs.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dotpkg",
		Short:         "Build and install tools from source repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Unknown keywords land here instead of failing with "unknown command".
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(debug)
			banner.Print(color.Output)
		},
		Run: func(cmd *cobra.Command, args []string) {
			printUsage()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(newInstallCmd())
	return rootCmd
}

func printUsage() {
	logger.Plain("%s", usage)
}

// Execute runs the CLI with the process arguments. Every outcome, including
// unexpected failures, is reported as text; the process exit status is always 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, os.Args[1:])
}

// run executes the command tree with args and swallows anything that escapes it.
func run(ctx context.Context, args []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Fatal error: %v\n", r)
		}
	}()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Fatal error: %v\n", err)
	}
}
