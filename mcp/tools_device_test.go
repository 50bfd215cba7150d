package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// Helper to create a CallToolRequest with arguments
func makeToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// Helper to get text content from result
func getTextContent(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// ==================== device_list ====================

func TestHandleDeviceList_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.SetupWithDevices(
		SampleDevice("device1"),
		SampleDevice("device2"),
	)
	server := NewMCPServer(mock)

	result, err := server.handleDeviceList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "device1") {
		t.Error("Result should contain device1")
	}
	if !strings.Contains(text, "device2") {
		t.Error("Result should contain device2")
	}
	if !strings.Contains(text, "2 device") {
		t.Error("Result should mention 2 devices")
	}
}

func TestHandleDeviceList_NoDevices(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	result, err := server.handleDeviceList(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(strings.ToLower(text), "no device") {
		t.Errorf("Result should indicate no devices, got: %s", text)
	}
}

func TestHandleDeviceList_Error(t *testing.T) {
	mock := NewMockTetherApp()
	mock.SetupWithError("GetDevices", ErrDeviceNotFound)
	server := NewMCPServer(mock)

	_, err := server.handleDeviceList(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error, got nil")
	}
}

// ==================== device_info ====================

func TestHandleDeviceInfo_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.GetDeviceInfoResult = SampleDeviceInfo()
	server := NewMCPServer(mock)

	result, err := server.handleDeviceInfo(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "device1",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, "Pixel 6") {
		t.Error("Result should contain the model")
	}
	if !strings.Contains(text, "arm64-v8a") {
		t.Error("Result should contain the ABI")
	}

	call := mock.GetLastCallByMethod("GetDeviceInfo")
	if call == nil {
		t.Fatal("GetDeviceInfo should have been called")
	}
	if call.Args[0] != "device1" {
		t.Errorf("Expected device1, got %v", call.Args[0])
	}
}

func TestHandleDeviceInfo_MissingDeviceID(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleDeviceInfo(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing device_id")
	}
	if mock.WasMethodCalled("GetDeviceInfo") {
		t.Error("GetDeviceInfo should not be called without a device_id")
	}
}

// ==================== device_connect ====================

func TestHandleDeviceConnect_DefaultPort(t *testing.T) {
	mock := NewMockTetherApp()
	mock.AdbConnectResult = "connected to 192.168.1.50:5555"
	server := NewMCPServer(mock)

	result, err := server.handleDeviceConnect(context.Background(), makeToolRequest(map[string]interface{}{
		"host": "192.168.1.50",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "connected") {
		t.Error("Result should contain the connect output")
	}

	call := mock.GetLastCallByMethod("AdbConnect")
	if call == nil {
		t.Fatal("AdbConnect should have been called")
	}
	if call.Args[1] != "5555" {
		t.Errorf("Expected default port 5555, got %v", call.Args[1])
	}
}

func TestHandleDeviceConnect_MissingHost(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleDeviceConnect(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing host")
	}
}

// ==================== device_pair ====================

func TestHandleDevicePair_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.AdbPairResult = "Successfully paired to 192.168.1.50:37123"
	server := NewMCPServer(mock)

	result, err := server.handleDevicePair(context.Background(), makeToolRequest(map[string]interface{}{
		"host": "192.168.1.50",
		"port": "37123",
		"code": "123456",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "paired") {
		t.Error("Result should contain the pair output")
	}

	call := mock.GetLastCallByMethod("AdbPair")
	if call == nil {
		t.Fatal("AdbPair should have been called")
	}
	if call.Args[2] != "123456" {
		t.Errorf("Expected pairing code to be forwarded, got %v", call.Args[2])
	}
}

func TestHandleDevicePair_MissingCode(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleDevicePair(context.Background(), makeToolRequest(map[string]interface{}{
		"host": "192.168.1.50",
		"port": "37123",
	}))
	if err == nil {
		t.Error("Expected error for missing pairing code")
	}
}

// ==================== device_reboot ====================

func TestHandleDeviceReboot_DefaultMode(t *testing.T) {
	mock := NewMockTetherApp()
	mock.RebootDeviceResult = "Device ABC123 rebooting"
	server := NewMCPServer(mock)

	_, err := server.handleDeviceReboot(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("RebootDevice")
	if call == nil {
		t.Fatal("RebootDevice should have been called")
	}
	if call.Args[1] != "normal" {
		t.Errorf("Expected default mode 'normal', got %v", call.Args[1])
	}
}

func TestHandleDeviceReboot_RecoveryMode(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleDeviceReboot(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
		"mode":      "recovery",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	call := mock.GetLastCallByMethod("RebootDevice")
	if call.Args[1] != "recovery" {
		t.Errorf("Expected mode 'recovery', got %v", call.Args[1])
	}
}

// ==================== adb_execute ====================

func TestHandleAdbExecute_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.RunAdbCommandResult = "package:com.android.settings"
	server := NewMCPServer(mock)

	result, err := server.handleAdbExecute(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
		"command":   "shell pm list packages settings",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(getTextContent(result), "com.android.settings") {
		t.Error("Result should contain the command output")
	}
}

func TestHandleAdbExecute_CommandError(t *testing.T) {
	mock := NewMockTetherApp()
	mock.RunAdbCommandError = ErrDeviceOffline
	server := NewMCPServer(mock)

	result, err := server.handleAdbExecute(context.Background(), makeToolRequest(map[string]interface{}{
		"device_id": "ABC123",
		"command":   "shell ls",
	}))
	if err != nil {
		t.Fatalf("Command failures should be reported in the result, not as errors: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("Result should be flagged as an error")
	}
}
