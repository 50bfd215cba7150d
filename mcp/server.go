// Package mcp exposes the Tether backend over the Model Context Protocol
// so external AI clients (like Claude Desktop) can drive Android devices.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"Tether/pkg/types"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Type aliases from shared types package
// This avoids code duplication and ensures type consistency
type (
	Device      = types.Device
	DeviceInfo  = types.DeviceInfo
	AppPackage  = types.AppPackage
	BatchResult = types.BatchResult
)

// TetherApp is the surface the MCP server needs from the main application.
// The main App implements it directly; tests substitute a mock.
type TetherApp interface {
	// Device Management
	GetDevices(forceLog bool) ([]Device, error)
	GetDeviceInfo(deviceID string) (DeviceInfo, error)
	GetBatteryLevel(deviceID string) (int, error)
	AdbConnect(host, port string) (string, error)
	AdbDisconnect(address string) (string, error)
	AdbPair(host, port, code string) (string, error)
	SwitchToWireless(deviceID string) (string, error)
	GetDeviceIP(deviceID string) (string, error)
	RebootDevice(deviceID, mode string) (string, error)
	RunAdbCommand(deviceID string, fullCmd string) (string, error)

	// App Management
	ListPackages(deviceID string, packageType string) ([]AppPackage, error)
	GetAppInfo(deviceID, packageName string, force bool) (AppPackage, error)
	InstallAPK(deviceID string, path string) (string, error)
	UninstallApp(deviceID, packageName string) (string, error)
	DisableApp(deviceID, packageName string) (string, error)
	EnableApp(deviceID, packageName string) (string, error)
	ClearAppData(deviceID, packageName string) (string, error)
	ForceStopApp(deviceID, packageName string) (string, error)
	StartApp(deviceID, packageName string) (string, error)
	IsAppRunning(deviceID, packageName string) (bool, error)

	// Batch Operations
	BatchInstallAPK(deviceIDs []string, path string) (BatchResult, error)
	BatchUninstallApp(deviceIDs []string, packageName string) (BatchResult, error)
	BatchRebootDevices(deviceIDs []string, mode string) (BatchResult, error)

	// Logcat
	StartLogcat(deviceID, filter, minLevel string) error
	StopLogcat()
	LogcatRunning() bool
	SaveLogcat(destDir string) (string, error)

	// Utility
	GetAppVersion() string
}

// MCPServer wraps the MCP server and adapts TetherApp to its tools
type MCPServer struct {
	app       TetherApp
	server    *server.MCPServer
	stdio     *server.StdioServer
	mu        sync.Mutex
	isRunning bool
}

// NewMCPServer creates a new MCP server for Tether
func NewMCPServer(app TetherApp) *MCPServer {
	mcpServer := server.NewMCPServer(
		"tether-android-manager",
		app.GetAppVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	s := &MCPServer{
		app:    app,
		server: mcpServer,
	}

	s.registerTools()
	s.registerResources()

	return s
}

// registerTools registers all MCP tools
func (s *MCPServer) registerTools() {
	s.registerDeviceTools()
	s.registerAppTools()
	s.registerLogcatTools()
}

// registerResources registers all MCP resources
func (s *MCPServer) registerResources() {
	s.server.AddResource(
		mcp.NewResource(
			"tether://devices",
			"Connected Android devices",
			mcp.WithMIMEType("application/json"),
		),
		s.handleDevicesResource,
	)

	s.server.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"tether://devices/{deviceId}",
			"Device information",
		),
		s.handleDeviceInfoResource,
	)
}

func (s *MCPServer) handleDevicesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	devices, err := s.app.GetDevices(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	jsonData, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize devices: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func (s *MCPServer) handleDeviceInfoResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	deviceID := extractResourceID(request.Params.URI, "tether://devices/")
	if deviceID == "" {
		return nil, fmt.Errorf("device ID missing from resource URI")
	}

	info, err := s.app.GetDeviceInfo(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device info: %w", err)
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize device info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func extractResourceID(uri, prefix string) string {
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		return ""
	}
	return uri[len(prefix):]
}

// Start starts the MCP server (blocking - for CLI mode)
// This method blocks until the server shuts down
func (s *MCPServer) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("MCP server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	return s.run()
}

// run runs the MCP server (blocking)
func (s *MCPServer) run() error {
	s.stdio = server.NewStdioServer(s.server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "[MCP] Tether MCP server started")
	err := s.stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[MCP] Server error: %v\n", err)
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	return err
}

// Stop stops the MCP server
func (s *MCPServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The server exits when stdin closes or the context is cancelled
	s.isRunning = false
}

// IsRunning returns whether the MCP server is running
func (s *MCPServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
