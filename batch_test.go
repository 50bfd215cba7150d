package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunBatchMixedOutcomes(t *testing.T) {
	app := NewApp("test")

	result := app.runBatch("test-op", []string{"good1", "bad", "good2"}, func(deviceID string) (string, error) {
		if deviceID == "bad" {
			return "", errors.New("device offline")
		}
		return "done", nil
	})

	if result.ID == "" {
		t.Error("Batch should get an ID")
	}
	if result.Operation != "test-op" {
		t.Errorf("Operation = %q, want test-op", result.Operation)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("Got %d succeeded / %d failed, want 2/1", result.Succeeded, result.Failed)
	}

	// Item order matches the input device order
	if result.Items[0].DeviceID != "good1" || result.Items[2].DeviceID != "good2" {
		t.Error("Item order should match input order")
	}
	if result.Items[1].Success {
		t.Error("Failed device should not be marked successful")
	}
	if result.Items[1].Message != "device offline" {
		t.Errorf("Failure message = %q, want the operation error", result.Items[1].Message)
	}
}

func TestRunBatchRejectsInvalidDeviceIDs(t *testing.T) {
	app := NewApp("test")

	var called int32
	result := app.runBatch("test-op", []string{"ok-device", "bad id; rm -rf"}, func(deviceID string) (string, error) {
		atomic.AddInt32(&called, 1)
		return "done", nil
	})

	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("Operation ran %d times, want 1 (invalid ID must be rejected before the operation)", called)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("Got %d/%d, want 1 succeeded, 1 failed", result.Succeeded, result.Failed)
	}
}

func TestRunBatchConcurrencyCap(t *testing.T) {
	app := NewApp("test")

	var mu sync.Mutex
	inFlight, peak := 0, 0

	devices := make([]string, 16)
	for i := range devices {
		devices[i] = "device" + string(rune('a'+i))
	}

	done := make(chan struct{})
	app.runBatch("test-op", devices, func(deviceID string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		// Let other workers pile up against the semaphore
		select {
		case <-done:
		default:
		}

		mu.Lock()
		inFlight--
		mu.Unlock()
		return "done", nil
	})
	close(done)

	if peak > batchConcurrency {
		t.Errorf("Peak concurrency %d exceeded cap %d", peak, batchConcurrency)
	}
}

func TestBatchValidatesSharedInputFirst(t *testing.T) {
	app := NewApp("test")

	if _, err := app.BatchRebootDevices([]string{"dev1"}, "warp-speed"); err == nil {
		t.Error("Unknown reboot mode should be rejected before any device is touched")
	}
	if _, err := app.BatchUninstallApp([]string{"dev1"}, "not a package!"); err == nil {
		t.Error("Invalid package name should be rejected before any device is touched")
	}
	if _, err := app.BatchInstallAPK(nil, "/tmp/app.apk"); err == nil {
		t.Error("Empty device list should be rejected")
	}
}
