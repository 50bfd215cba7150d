// Package adb wraps the externally installed Android Debug Bridge
// executable. It builds argument lists, runs adb as a child process, and
// normalizes the captured text output into structured results. All parsing
// of adb's free-text output lives here so that format drift touches only
// this package.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvPathOverride lets users point the app at a specific adb binary
// instead of the first one on PATH.
const EnvPathOverride = "TETHER_ADB"

// ErrUnavailable is returned by every operation when the adb executable
// could not be resolved at startup.
var ErrUnavailable = errors.New("adb executable not found (install Android SDK Platform-Tools and ensure 'adb' is on PATH)")

// Result is the uniform outcome of one adb invocation: exit status plus
// the captured output streams. A non-zero exit is data, not a Go error.
type Result struct {
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Success reports whether the invocation exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Combined returns stdout followed by stderr, for surfacing diagnostics
// verbatim to the user.
func (r Result) Combined() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes adb commands. It holds no per-device state; every call
// is a pure function from (args) to Result.
type Runner struct {
	path       string
	resolveErr error
}

// Resolve locates the adb executable via TETHER_ADB or PATH. The returned
// Runner is always usable; if resolution failed, every call reports
// ErrUnavailable so the failure is surfaced once per operation attempt
// rather than crashing the app.
func Resolve() *Runner {
	if override := os.Getenv(EnvPathOverride); override != "" {
		if info, err := os.Stat(override); err == nil && !info.IsDir() {
			return &Runner{path: override}
		}
		return &Runner{resolveErr: fmt.Errorf("%w: %s points to a missing file: %s", ErrUnavailable, EnvPathOverride, override)}
	}

	path, err := exec.LookPath("adb")
	if err != nil {
		return &Runner{resolveErr: ErrUnavailable}
	}
	return &Runner{path: path}
}

// NewRunner creates a Runner for a known executable path. Used by tests
// and by callers that manage resolution themselves.
func NewRunner(path string) *Runner {
	return &Runner{path: path}
}

// Available reports whether the executable was resolved.
func (r *Runner) Available() bool {
	return r.resolveErr == nil
}

// Path returns the resolved executable path, or "" when unavailable.
func (r *Runner) Path() string {
	return r.path
}

// ResolveError returns the resolution failure, or nil.
func (r *Runner) ResolveError() error {
	return r.resolveErr
}

// Command builds an exec.Cmd for the adb executable with proxy variables
// scrubbed from the environment. adb tunnels its own traffic and an
// inherited HTTP proxy breaks wireless connect on some setups.
func (r *Runner) Command(ctx context.Context, args ...string) *exec.Cmd {
	var cmd *exec.Cmd
	if ctx != nil {
		cmd = exec.CommandContext(ctx, r.path, args...)
	} else {
		cmd = exec.Command(r.path, args...)
	}
	cmd.Env = scrubProxyEnv(os.Environ())
	return cmd
}

// Run executes adb with the given arguments and returns the uniform
// Result. The error return is reserved for environment failures: adb not
// resolved, the process failing to start, or the context ending before
// the command did. A command that ran and exited non-zero returns a
// Result with that exit code and a nil error.
func (r *Runner) Run(ctx context.Context, args ...string) (Result, error) {
	res := Result{Args: args}
	if r.resolveErr != nil {
		return res, r.resolveErr
	}

	cmd := r.Command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if ctx != nil && ctx.Err() != nil {
		res.ExitCode = -1
		return res, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("failed to run adb %s: %w", strings.Join(args, " "), err)
	}

	return res, nil
}

// Output is the strict variant used by query operations: it returns
// stdout on success and folds a non-zero exit into the error, with the
// tool's diagnostic text preserved.
func (r *Runner) Output(ctx context.Context, args ...string) (string, error) {
	res, err := r.Run(ctx, args...)
	if err != nil {
		return res.Stdout, err
	}
	if !res.Success() {
		return res.Stdout, fmt.Errorf("adb %s exited with status %d: %s",
			strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Combined()))
	}
	return res.Stdout, nil
}

// Shell runs a shell command on the given device.
func (r *Runner) Shell(ctx context.Context, deviceID string, shellArgs ...string) (Result, error) {
	args := append([]string{"-s", deviceID, "shell"}, shellArgs...)
	return r.Run(ctx, args...)
}

func scrubProxyEnv(env []string) []string {
	proxyVars := []string{"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "all_proxy", "no_proxy"}
	out := make([]string, 0, len(env))
	for _, e := range env {
		isProxy := false
		for _, v := range proxyVars {
			if strings.HasPrefix(e, v+"=") {
				isProxy = true
				break
			}
		}
		if !isProxy {
			out = append(out, e)
		}
	}
	return out
}
