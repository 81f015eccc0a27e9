// Package runner executes external commands synchronously with captured output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"dotpkg/internal/logger"
)

// CommandFailedError is returned when a command exits with a non-zero status.
// ExitCode is -1 when the process could not be started or was killed by a signal.
type CommandFailedError struct {
	ExitCode int
	Command  string
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("command failed (%d): %s", e.ExitCode, e.Command)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

// Runner runs one process at a time and relays its standard output to Stdout.
type Runner struct {
	Stdout io.Writer
}

// New returns a Runner relaying successful command output to stdout.
// A nil stdout defaults to os.Stdout.
func New(stdout io.Writer) *Runner {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Runner{Stdout: stdout}
}

// Run executes name with args in dir (the current directory when empty) and
// blocks until it exits. Arguments are passed as-is, never through a shell.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // commands come from the user's manifest
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	command := strings.Join(append([]string{name}, args...), " ")
	logger.Debug("[DEBUG] Running command: %s (dir=%q)\n", command, dir)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		text := stderr.String()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if text == "" {
			text = err.Error()
		}
		logger.Debug("[DEBUG] Command exited with %d: %s\n", exitCode, command)
		return &CommandFailedError{ExitCode: exitCode, Command: command, Stderr: text}
	}

	if stdout.Len() > 0 && r.Stdout != nil {
		_, _ = io.Copy(r.Stdout, &stdout)
	}
	return nil
}

// Shell runs a user-supplied script through bash -c, or sh -c when bash is not
// installed. The script is handed to the shell as a single argument.
func (r *Runner) Shell(ctx context.Context, dir, script string) error {
	shell := "sh"
	if path, err := exec.LookPath("bash"); err == nil {
		shell = path
	}
	return r.Run(ctx, dir, shell, "-c", script)
}
