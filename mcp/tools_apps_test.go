package mcp

import (
	"context"
	"strings"
	"testing"
)

// ==================== app_list ====================

func TestHandleAppList_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.ListPackagesResult = []AppPackage{
		SamplePackage("com.example.one"),
		SamplePackage("com.example.two"),
	}
	server := NewMCPServer(mock)

	result, err := server.handleAppList(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "com.example.one") {
		t.Error("Result should list the first package")
	}
	if !strings.Contains(text, "2 user package") {
		t.Errorf("Result should mention 2 user packages, got: %s", text)
	}
}

func TestHandleAppList_TypeForwarded(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleAppList(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
		"type":      "system",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("ListPackages")
	if call == nil {
		t.Fatal("ListPackages should have been called")
	}
	if call.Args[1] != "system" {
		t.Errorf("Expected package type 'system', got %v", call.Args[1])
	}
}

func TestHandleAppList_Empty(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	result, err := server.handleAppList(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "No packages") {
		t.Error("Result should indicate no packages found")
	}
}

// ==================== app_info ====================

func TestHandleAppInfo_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.GetAppInfoResult = SamplePackage("com.example.app")
	server := NewMCPServer(mock)

	result, err := server.handleAppInfo(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id":    "ABC123",
		"package_name": "com.example.app",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "1.2.3") {
		t.Error("Result should contain the version name")
	}
	if !strings.Contains(text, "enabled") {
		t.Error("Result should contain the package state")
	}
}

func TestHandleAppInfo_MissingPackageName(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleAppInfo(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
	}))
	if err == nil {
		t.Error("Expected error for missing package_name")
	}
	if mock.WasMethodCalled("GetAppInfo") {
		t.Error("GetAppInfo should not be called without a package name")
	}
}

// ==================== app_uninstall / app_disable ====================

func TestHandleAppUninstall_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.UninstallAppResult = "Success"
	server := NewMCPServer(mock)

	result, err := server.handleAppUninstall(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id":    "ABC123",
		"package_name": "com.example.app",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "Success") {
		t.Error("Result should contain the uninstall output")
	}

	call := mock.GetLastCallByMethod("UninstallApp")
	if call == nil {
		t.Fatal("UninstallApp should have been called")
	}
	if call.Args[1] != "com.example.app" {
		t.Errorf("Expected package name to be forwarded, got %v", call.Args[1])
	}
}

func TestHandleAppDisable_Error(t *testing.T) {
	mock := NewMockTetherApp()
	mock.SetupWithError("DisableApp", ErrPackageNotFound)
	server := NewMCPServer(mock)

	_, err := server.handleAppDisable(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id":    "ABC123",
		"package_name": "com.example.app",
	}))
	if err == nil {
		t.Error("Expected error when disable fails")
	}
}

// ==================== app_running ====================

func TestHandleAppRunning_States(t *testing.T) {
	tests := []struct {
		running bool
		want    string
	}{
		{true, "is running"},
		{false, "not running"},
	}

	for _, tt := range tests {
		mock := NewMockTetherApp()
		mock.IsAppRunningResult = tt.running
		server := NewMCPServer(mock)

		result, err := server.handleAppRunning(context.Background(), makeToolRequest(map[string]interface{}{
			"device_id":    "ABC123",
			"package_name": "com.example.app",
		}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(getTextContent(result), tt.want) {
			t.Errorf("running=%v: result should contain %q", tt.running, tt.want)
		}
	}
}

// ==================== batch tools ====================

func TestHandleBatchInstall_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.BatchInstallAPKResult = BatchResult{
		ID:        "batch-1",
		Operation: "install",
		Succeeded: 2,
		Failed:    0,
	}
	server := NewMCPServer(mock)

	result, err := server.handleBatchInstall(context.Background(), makeToolRequest(map[string]interface{}{
		"device_ids": []interface{}{"dev1", "dev2"},
		"apk_path":   "/tmp/app.apk",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "2 succeeded") {
		t.Error("Result should summarize the batch outcome")
	}

	call := mock.GetLastCallByMethod("BatchInstallAPK")
	if call == nil {
		t.Fatal("BatchInstallAPK should have been called")
	}
	ids := call.Args[0].([]string)
	if len(ids) != 2 || ids[0] != "dev1" {
		t.Errorf("Expected device IDs to be forwarded, got %v", ids)
	}
}

func TestHandleBatchReboot_EmptyDeviceList(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleBatchReboot(context.Background(), makeToolRequest(map[string]interface{}{
		"device_ids": []interface{}{},
	}))
	if err == nil {
		t.Error("Expected error for empty device list")
	}
	if mock.WasMethodCalled("BatchRebootDevices") {
		t.Error("BatchRebootDevices should not be called with no devices")
	}
}

// ==================== logcat tools ====================

func TestHandleLogcatStart_ForwardsFilter(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleLogcatStart(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
		"filter":    "ActivityManager",
		"min_level": "W",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("StartLogcat")
	if call == nil {
		t.Fatal("StartLogcat should have been called")
	}
	if call.Args[1] != "ActivityManager" || call.Args[2] != "W" {
		t.Errorf("Expected filter and level to be forwarded, got %v", call.Args)
	}
}

func TestHandleLogcatStop_NotRunning(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	result, err := server.handleLogcatStop(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "No logcat") {
		t.Error("Result should indicate no stream is running")
	}
	if mock.WasMethodCalled("StopLogcat") {
		t.Error("StopLogcat should not be called when nothing is running")
	}
}

func TestHandleLogcatSave_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.SaveLogcatResult = "/tmp/logcat_20260829.txt"
	server := NewMCPServer(mock)

	result, err := server.handleLogcatSave(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "logcat_20260829.txt") {
		t.Error("Result should contain the saved file path")
	}
}
