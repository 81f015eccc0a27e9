package logger

import (
	"github.com/fatih/color" // Colored console output for each log level
)

// Colorized printing functions for the different log levels.
// They behave like fmt.Printf and write to color.Output, so tests can swap the
// destination without touching the call sites.

// Info logs informational progress messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Success logs the final outcome of a successful operation in bold bright green.
var Success = color.New(color.FgHiGreen, color.Bold).PrintfFunc()

// Warn logs warning messages in bright magenta.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Plain prints uncolored text, used for relaying output of child processes.
var Plain = color.New(color.Reset).PrintfFunc()

// Debug logs debug messages in cyan if enabled, otherwise it is a no-op.
// It is reassigned by Init.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
// When enabled, Debug prints cyan messages; when disabled it silently drops them.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
