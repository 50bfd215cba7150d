package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func makeResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func getResourceText(contents []mcp.ResourceContents) string {
	if len(contents) == 0 {
		return ""
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); ok {
		return tc.Text
	}
	return ""
}

func TestHandleDevicesResource_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.SetupWithDevices(
		SampleDevice("device1"),
		SampleDevice("device2"),
	)
	server := NewMCPServer(mock)

	contents, err := server.handleDevicesResource(context.Background(), makeResourceRequest("tether://devices"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var devices []Device
	if err := json.Unmarshal([]byte(getResourceText(contents)), &devices); err != nil {
		t.Fatalf("Result should be valid JSON: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Expected 2 devices, got %d", len(devices))
	}
}

func TestHandleDeviceInfoResource_Success(t *testing.T) {
	mock := NewMockTetherApp()
	mock.GetDeviceInfoResult = SampleDeviceInfo()
	server := NewMCPServer(mock)

	contents, err := server.handleDeviceInfoResource(context.Background(), makeResourceRequest("tether://devices/device1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var info DeviceInfo
	if err := json.Unmarshal([]byte(getResourceText(contents)), &info); err != nil {
		t.Fatalf("Result should be valid JSON: %v", err)
	}

	call := mock.GetLastCallByMethod("GetDeviceInfo")
	if call == nil {
		t.Fatal("GetDeviceInfo should have been called")
	}
	if call.Args[0] != "device1" {
		t.Errorf("Expected device1, got %v", call.Args[0])
	}
}

func TestHandleDeviceInfoResource_MissingID(t *testing.T) {
	mock := NewMockTetherApp()
	server := NewMCPServer(mock)

	_, err := server.handleDeviceInfoResource(context.Background(), makeResourceRequest("tether://devices/"))
	if err == nil {
		t.Fatal("Expected an error for a URI without a device ID")
	}
	if mock.WasMethodCalled("GetDeviceInfo") {
		t.Error("GetDeviceInfo should not be called without a device ID")
	}
}

func TestExtractResourceID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"tether://devices/abc123", "abc123"},
		{"tether://devices/192.168.1.5:5555", "192.168.1.5:5555"},
		{"tether://devices/", ""},
		{"tether://devices", ""},
		{"other://devices/abc", ""},
	}
	for _, tt := range tests {
		if got := extractResourceID(tt.uri, "tether://devices/"); got != tt.want {
			t.Errorf("extractResourceID(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestServerRunningState(t *testing.T) {
	server := NewMCPServer(NewMockTetherApp())

	if server.IsRunning() {
		t.Error("Server should not report running before Start")
	}

	server.Stop()
	if server.IsRunning() {
		t.Error("Server should not report running after Stop")
	}
}
