package adb

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRunUnavailable(t *testing.T) {
	r := &Runner{resolveErr: ErrUnavailable}
	if r.Available() {
		t.Fatal("runner should report unavailable")
	}
	_, err := r.Run(context.Background(), "devices")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolveOverrideMissingFile(t *testing.T) {
	t.Setenv(EnvPathOverride, "/nonexistent/adb-binary")
	r := Resolve()
	if r.Available() {
		t.Fatal("missing override path should make the runner unavailable")
	}
	if !errors.Is(r.ResolveError(), ErrUnavailable) {
		t.Errorf("resolve error = %v", r.ResolveError())
	}
}

func TestResolveOverrideValidFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "adb")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Setenv(EnvPathOverride, f.Name())
	r := Resolve()
	if !r.Available() {
		t.Fatalf("override path should resolve: %v", r.ResolveError())
	}
	if r.Path() != f.Name() {
		t.Errorf("path = %q, want %q", r.Path(), f.Name())
	}
}

func TestRunNonZeroExitIsNotError(t *testing.T) {
	// `false` exits 1 without output; a tool-level failure must come back
	// as a Result, not a Go error.
	r := NewRunner("false")
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success() || res.ExitCode != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunCapturesStdout(t *testing.T) {
	r := NewRunner("echo")
	res, err := r.Run(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success() || strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("result = %+v", res)
	}
}

func TestRunCancellationKillsChild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner("sleep")

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, "30")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("cancellation did not terminate the child promptly")
	}
}

func TestOutputFoldsFailureIntoError(t *testing.T) {
	r := NewRunner("false")
	_, err := r.Output(context.Background())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "status 1") {
		t.Errorf("error should carry exit status: %v", err)
	}
}

func TestScrubProxyEnv(t *testing.T) {
	env := []string{"PATH=/usr/bin", "HTTP_PROXY=http://proxy:8080", "https_proxy=http://proxy:8080", "HOME=/root"}
	got := scrubProxyEnv(env)
	for _, e := range got {
		if strings.Contains(strings.ToLower(e), "proxy") {
			t.Errorf("proxy variable survived scrub: %s", e)
		}
	}
	if len(got) != 2 {
		t.Errorf("expected 2 surviving variables, got %v", got)
	}
}

func TestResultCombined(t *testing.T) {
	r := Result{Stdout: "out", Stderr: "err"}
	if r.Combined() != "out\nerr" {
		t.Errorf("combined = %q", r.Combined())
	}
	if (Result{Stderr: "only"}).Combined() != "only" {
		t.Error("stderr-only combined wrong")
	}
}
