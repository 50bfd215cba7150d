package main

import (
	"strings"
	"testing"
)

func TestDeviceOpGuardRejectsOverlap(t *testing.T) {
	app := NewApp("test")

	if err := app.beginDeviceOp("ABC123", "install"); err != nil {
		t.Fatalf("First operation should claim the slot: %v", err)
	}

	err := app.beginDeviceOp("ABC123", "uninstall")
	if err == nil {
		t.Fatal("Second operation on the same device should be rejected")
	}
	if !strings.Contains(err.Error(), "install") {
		t.Errorf("Error should name the in-flight operation, got: %v", err)
	}

	// A different device is unaffected
	if err := app.beginDeviceOp("XYZ789", "reboot"); err != nil {
		t.Errorf("Operations on other devices should proceed: %v", err)
	}
}

func TestDeviceOpGuardReleasesSlot(t *testing.T) {
	app := NewApp("test")

	if err := app.beginDeviceOp("ABC123", "install"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	app.endDeviceOp("ABC123")

	if err := app.beginDeviceOp("ABC123", "uninstall"); err != nil {
		t.Errorf("Slot should be free after endDeviceOp: %v", err)
	}
}

func TestDeviceBusyReporting(t *testing.T) {
	app := NewApp("test")

	if got := app.DeviceBusy("ABC123"); got != "" {
		t.Errorf("Idle device should report empty, got %q", got)
	}

	app.beginDeviceOp("ABC123", "disable")
	if got := app.DeviceBusy("ABC123"); got != "disable" {
		t.Errorf("DeviceBusy = %q, want disable", got)
	}

	app.endDeviceOp("ABC123")
	if got := app.DeviceBusy("ABC123"); got != "" {
		t.Errorf("Released device should report empty, got %q", got)
	}
}

func TestBackendLogRing(t *testing.T) {
	app := NewApp("test")

	for i := 0; i < 1100; i++ {
		app.Log("line %d", i)
	}

	logs := app.GetBackendLogs()
	if len(logs) != 1000 {
		t.Fatalf("Log ring should cap at 1000 lines, got %d", len(logs))
	}
	if !strings.Contains(logs[len(logs)-1], "line 1099") {
		t.Errorf("Newest line should be retained, got %q", logs[len(logs)-1])
	}
}
