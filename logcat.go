package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Tether/pkg/adb"
)

// logcatLinePattern matches Android logcat time format:
// "01-04 12:34:56.789 D/Tag( 1234): message"
var logcatLinePattern = regexp.MustCompile(`^\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d{3}\s+([VDIWEF])/([^(]+)\(\s*\d+\):\s*(.*)`)

// parseLogcatLine extracts level, tag, and message from a logcat line
func parseLogcatLine(line string) (level, tag, message string, ok bool) {
	matches := logcatLinePattern.FindStringSubmatch(line)
	if len(matches) < 4 {
		return "", "", "", false
	}
	return matches[1], strings.TrimSpace(matches[2]), matches[3], true
}

// logcatRetainLines bounds the in-memory buffer kept for export
const logcatRetainLines = 20000

// StartLogcat starts streaming logcat from a device. Lines matching
// filter (plain substring, case insensitive) are kept; minLevel drops
// anything less severe. Batches go to the webview as "logcat-data"
// events, throttled so a chatty device cannot flood the UI.
func (a *App) StartLogcat(deviceID, filter, minLevel string) error {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return err
	}

	a.updateLastActive(deviceID)

	a.logcatMu.Lock()
	defer a.logcatMu.Unlock()

	if a.logcatCmd != nil {
		a.stopLogcatLocked()
	}

	parent := a.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	cmd := a.adb.Command(ctx, "-s", deviceID, "logcat", "-v", "time")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start logcat: %w", err)
	}

	a.logcatCmd = cmd
	a.logcatCancel = cancel

	a.logcatBufferMu.Lock()
	a.logcatBuffer = nil
	a.logcatBufferMu.Unlock()

	LogUserAction(ActionLogcatStart, deviceID, map[string]interface{}{
		"filter":   filter,
		"minLevel": minLevel,
	})

	lineChan := make(chan string, 1000)
	filterLower := strings.ToLower(filter)
	minRank := levelRank(minLevel)

	// Reader & filter routine
	go func() {
		reader := bufio.NewReader(stdout)
		defer close(lineChan)

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				continue
			}

			if level, _, _, ok := parseLogcatLine(line); ok {
				if levelRank(level) < minRank {
					continue
				}
			}
			if filterLower != "" && !strings.Contains(strings.ToLower(line), filterLower) {
				continue
			}

			a.retainLogcatLine(line)

			select {
			case lineChan <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Aggregator & emitter routine. A token bucket caps emission at 10
	// batches/s with a short burst allowance; the flush ticker drains
	// whatever accumulated between tokens.
	go func() {
		limiter := rate.NewLimiter(rate.Limit(10), 20)
		var batch []string
		flushTicker := time.NewTicker(100 * time.Millisecond)
		defer flushTicker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			if limiter.Allow() {
				a.emit("logcat-data", strings.Join(batch, "\n"))
				batch = nil
			} else if len(batch) >= 5000 {
				// Device is outrunning the limiter; drop the oldest half
				// rather than grow without bound
				batch = batch[len(batch)/2:]
			}
		}

		for {
			select {
			case line, ok := <-lineChan:
				if !ok {
					flush()
					a.emit("logcat-stopped", deviceID)
					return
				}
				batch = append(batch, line)
				if len(batch) >= 500 {
					flush()
				}
			case <-flushTicker.C:
				flush()
			case <-ctx.Done():
				flush()
				a.emit("logcat-stopped", deviceID)
				return
			}
		}
	}()

	return nil
}

// levelRank orders Android log levels; unknown levels rank lowest
func levelRank(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "V":
		return 1
	case "D":
		return 2
	case "I":
		return 3
	case "W":
		return 4
	case "E":
		return 5
	case "F":
		return 6
	default:
		return 0
	}
}

func (a *App) retainLogcatLine(line string) {
	a.logcatBufferMu.Lock()
	a.logcatBuffer = append(a.logcatBuffer, line)
	if len(a.logcatBuffer) > logcatRetainLines {
		a.logcatBuffer = a.logcatBuffer[len(a.logcatBuffer)-logcatRetainLines:]
	}
	a.logcatBufferMu.Unlock()
}

// StopLogcat stops the logcat stream
func (a *App) StopLogcat() {
	a.logcatMu.Lock()
	defer a.logcatMu.Unlock()
	if a.logcatCmd != nil {
		LogUserAction(ActionLogcatStop, "", nil)
	}
	a.stopLogcatLocked()
}

func (a *App) stopLogcatLocked() {
	if a.logcatCancel != nil {
		a.logcatCancel()
	}
	if cmd := a.logcatCmd; cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		// Reap the killed child so it does not linger as a zombie
		go func() { _ = cmd.Wait() }()
	}
	a.logcatCmd = nil
	a.logcatCancel = nil
}

// LogcatRunning reports whether a logcat stream is active
func (a *App) LogcatRunning() bool {
	a.logcatMu.Lock()
	defer a.logcatMu.Unlock()
	return a.logcatCmd != nil
}

// SaveLogcat writes the retained logcat buffer to a file and returns its
// path. An empty destDir defaults to the config directory.
func (a *App) SaveLogcat(destDir string) (string, error) {
	a.logcatBufferMu.Lock()
	lines := make([]string, len(a.logcatBuffer))
	copy(lines, a.logcatBuffer)
	a.logcatBufferMu.Unlock()

	if len(lines) == 0 {
		return "", fmt.Errorf("no logcat output captured")
	}

	if destDir == "" {
		destDir = a.ConfigDir()
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(destDir, fmt.Sprintf("logcat_%s.txt", time.Now().Format("2006-01-02_15-04-05")))
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write logcat file: %w", err)
	}

	LogUserAction(ActionLogcatSave, "", map[string]interface{}{
		"path":  path,
		"lines": len(lines),
	})
	return path, nil
}

// ClearLogcat clears the device-side log buffer and the retained lines
func (a *App) ClearLogcat(deviceID string) error {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := a.adb.Run(ctx, "-s", deviceID, "logcat", "-c")
	if err != nil {
		return fmt.Errorf("failed to clear logcat: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("failed to clear logcat: %s", strings.TrimSpace(res.Combined()))
	}

	a.logcatBufferMu.Lock()
	a.logcatBuffer = nil
	a.logcatBufferMu.Unlock()
	return nil
}
