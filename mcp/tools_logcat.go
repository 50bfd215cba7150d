package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerLogcatTools registers logcat streaming and batch operation tools
func (s *MCPServer) registerLogcatTools() {
	// logcat_start - Start streaming logcat
	s.server.AddTool(
		mcp.NewTool("logcat_start",
			mcp.WithDescription("Start streaming logcat from a device. Output is buffered and can be saved with logcat_save."),
			mcp.WithString("device_id",
				mcp.Required(),
				mcp.Description("Device ID to stream logs from"),
			),
			mcp.WithString("filter",
				mcp.Description("Case-insensitive substring filter applied to each line"),
			),
			mcp.WithString("min_level",
				mcp.Description("Minimum log level: V, D, I, W, E, or F"),
			),
		),
		s.handleLogcatStart,
	)

	// logcat_stop - Stop the running logcat stream
	s.server.AddTool(
		mcp.NewTool("logcat_stop",
			mcp.WithDescription("Stop the running logcat stream"),
		),
		s.handleLogcatStop,
	)

	// logcat_save - Save buffered logcat output to a file
	s.server.AddTool(
		mcp.NewTool("logcat_save",
			mcp.WithDescription("Save the buffered logcat output to a timestamped file"),
			mcp.WithString("dest_dir",
				mcp.Description("Destination directory (defaults to the app config dir)"),
			),
		),
		s.handleLogcatSave,
	)

	// batch_install - Install an APK on several devices
	s.server.AddTool(
		mcp.NewTool("batch_install",
			mcp.WithDescription("Install an APK file on multiple devices concurrently"),
			mcp.WithArray("device_ids",
				mcp.Required(),
				mcp.Description("Device IDs to install on"),
			),
			mcp.WithString("apk_path",
				mcp.Required(),
				mcp.Description("Local path to the APK file"),
			),
		),
		s.handleBatchInstall,
	)

	// batch_uninstall - Uninstall a package from several devices
	s.server.AddTool(
		mcp.NewTool("batch_uninstall",
			mcp.WithDescription("Uninstall a package from multiple devices concurrently"),
			mcp.WithArray("device_ids",
				mcp.Required(),
				mcp.Description("Device IDs to uninstall from"),
			),
			mcp.WithString("package_name",
				mcp.Required(),
				mcp.Description("Package name to uninstall"),
			),
		),
		s.handleBatchUninstall,
	)

	// batch_reboot - Reboot several devices
	s.server.AddTool(
		mcp.NewTool("batch_reboot",
			mcp.WithDescription("Reboot multiple devices concurrently"),
			mcp.WithArray("device_ids",
				mcp.Required(),
				mcp.Description("Device IDs to reboot"),
			),
			mcp.WithString("mode",
				mcp.Description("Reboot mode: 'normal' (default), 'recovery', 'bootloader', or 'poweroff'"),
			),
		),
		s.handleBatchReboot,
	)
}

// Tool handlers

func (s *MCPServer) handleLogcatStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	deviceID, ok := args["device_id"].(string)
	if !ok || deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	filter, _ := args["filter"].(string)
	minLevel, _ := args["min_level"].(string)

	if err := s.app.StartLogcat(deviceID, filter, minLevel); err != nil {
		return nil, fmt.Errorf("failed to start logcat: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Logcat streaming started for %s", deviceID)),
		},
	}, nil
}

func (s *MCPServer) handleLogcatStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.app.LogcatRunning() {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("No logcat stream is running"),
			},
		}, nil
	}

	s.app.StopLogcat()

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("Logcat streaming stopped"),
		},
	}, nil
}

func (s *MCPServer) handleLogcatSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	destDir, _ := args["dest_dir"].(string)

	path, err := s.app.SaveLogcat(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to save logcat: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Logcat saved to %s", path)),
		},
	}, nil
}

// stringSlice coerces a JSON array argument into []string.
func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatBatchResult(result BatchResult) string {
	text := fmt.Sprintf("Batch %s: %d succeeded, %d failed\n\n", result.Operation, result.Succeeded, result.Failed)
	for _, item := range result.Items {
		status := "OK"
		if !item.Success {
			status = "FAILED"
		}
		text += fmt.Sprintf("%s: %s", item.DeviceID, status)
		if item.Message != "" {
			text += fmt.Sprintf(" (%s)", item.Message)
		}
		text += "\n"
	}
	return text
}

func (s *MCPServer) handleBatchInstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	deviceIDs := stringSlice(args["device_ids"])
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("device_ids is required")
	}
	apkPath, ok := args["apk_path"].(string)
	if !ok || apkPath == "" {
		return nil, fmt.Errorf("apk_path is required")
	}

	result, err := s.app.BatchInstallAPK(deviceIDs, apkPath)
	if err != nil {
		return nil, fmt.Errorf("batch install failed: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(formatBatchResult(result)),
		},
	}, nil
}

func (s *MCPServer) handleBatchUninstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	deviceIDs := stringSlice(args["device_ids"])
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("device_ids is required")
	}
	packageName, ok := args["package_name"].(string)
	if !ok || packageName == "" {
		return nil, fmt.Errorf("package_name is required")
	}

	result, err := s.app.BatchUninstallApp(deviceIDs, packageName)
	if err != nil {
		return nil, fmt.Errorf("batch uninstall failed: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(formatBatchResult(result)),
		},
	}, nil
}

func (s *MCPServer) handleBatchReboot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	deviceIDs := stringSlice(args["device_ids"])
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("device_ids is required")
	}
	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = "normal"
	}

	result, err := s.app.BatchRebootDevices(deviceIDs, mode)
	if err != nil {
		return nil, fmt.Errorf("batch reboot failed: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(formatBatchResult(result)),
		},
	}, nil
}
