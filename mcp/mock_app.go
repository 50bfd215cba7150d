package mcp

import (
	"errors"
	"sync"
)

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockTetherApp is a mock implementation of TetherApp for testing
type MockTetherApp struct {
	mu    sync.Mutex
	Calls []MockCall

	AppVersion string

	// Device Management
	GetDevicesResult       []Device
	GetDevicesError        error
	GetDeviceInfoResult    DeviceInfo
	GetDeviceInfoError     error
	GetBatteryLevelResult  int
	GetBatteryLevelError   error
	AdbConnectResult       string
	AdbConnectError        error
	AdbDisconnectResult    string
	AdbDisconnectError     error
	AdbPairResult          string
	AdbPairError           error
	SwitchToWirelessResult string
	SwitchToWirelessError  error
	GetDeviceIPResult      string
	GetDeviceIPError       error
	RebootDeviceResult     string
	RebootDeviceError      error
	RunAdbCommandResult    string
	RunAdbCommandError     error

	// App Management
	ListPackagesResult []AppPackage
	ListPackagesError  error
	GetAppInfoResult   AppPackage
	GetAppInfoError    error
	InstallAPKResult   string
	InstallAPKError    error
	UninstallAppResult string
	UninstallAppError  error
	DisableAppResult   string
	DisableAppError    error
	EnableAppResult    string
	EnableAppError     error
	ClearAppDataResult string
	ClearAppDataError  error
	ForceStopAppResult string
	ForceStopAppError  error
	StartAppResult     string
	StartAppError      error
	IsAppRunningResult bool
	IsAppRunningError  error

	// Batch Operations
	BatchInstallAPKResult    BatchResult
	BatchInstallAPKError     error
	BatchUninstallAppResult  BatchResult
	BatchUninstallAppError   error
	BatchRebootDevicesResult BatchResult
	BatchRebootDevicesError  error

	// Logcat
	StartLogcatError    error
	LogcatRunningResult bool
	SaveLogcatResult    string
	SaveLogcatError     error
}

// NewMockTetherApp creates a mock with sane empty defaults
func NewMockTetherApp() *MockTetherApp {
	return &MockTetherApp{
		Calls:                 make([]MockCall, 0),
		AppVersion:            "1.0.0-test",
		GetDevicesResult:      []Device{},
		ListPackagesResult:    []AppPackage{},
		GetBatteryLevelResult: -1,
	}
}

func (m *MockTetherApp) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns a copy of all recorded calls
func (m *MockTetherApp) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

// ResetCalls clears the recorded call log
func (m *MockTetherApp) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = m.Calls[:0]
}

// WasMethodCalled reports whether the named method was invoked
func (m *MockTetherApp) WasMethodCalled(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c.Method == method {
			return true
		}
	}
	return false
}

// GetLastCallByMethod returns the most recent invocation of the named method
func (m *MockTetherApp) GetLastCallByMethod(method string) *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			call := m.Calls[i]
			return &call
		}
	}
	return nil
}

// Device Management

func (m *MockTetherApp) GetDevices(forceLog bool) ([]Device, error) {
	m.recordCall("GetDevices", forceLog)
	return m.GetDevicesResult, m.GetDevicesError
}

func (m *MockTetherApp) GetDeviceInfo(deviceID string) (DeviceInfo, error) {
	m.recordCall("GetDeviceInfo", deviceID)
	return m.GetDeviceInfoResult, m.GetDeviceInfoError
}

func (m *MockTetherApp) GetBatteryLevel(deviceID string) (int, error) {
	m.recordCall("GetBatteryLevel", deviceID)
	return m.GetBatteryLevelResult, m.GetBatteryLevelError
}

func (m *MockTetherApp) AdbConnect(host, port string) (string, error) {
	m.recordCall("AdbConnect", host, port)
	return m.AdbConnectResult, m.AdbConnectError
}

func (m *MockTetherApp) AdbDisconnect(address string) (string, error) {
	m.recordCall("AdbDisconnect", address)
	return m.AdbDisconnectResult, m.AdbDisconnectError
}

func (m *MockTetherApp) AdbPair(host, port, code string) (string, error) {
	m.recordCall("AdbPair", host, port, code)
	return m.AdbPairResult, m.AdbPairError
}

func (m *MockTetherApp) SwitchToWireless(deviceID string) (string, error) {
	m.recordCall("SwitchToWireless", deviceID)
	return m.SwitchToWirelessResult, m.SwitchToWirelessError
}

func (m *MockTetherApp) GetDeviceIP(deviceID string) (string, error) {
	m.recordCall("GetDeviceIP", deviceID)
	return m.GetDeviceIPResult, m.GetDeviceIPError
}

func (m *MockTetherApp) RebootDevice(deviceID, mode string) (string, error) {
	m.recordCall("RebootDevice", deviceID, mode)
	return m.RebootDeviceResult, m.RebootDeviceError
}

func (m *MockTetherApp) RunAdbCommand(deviceID string, fullCmd string) (string, error) {
	m.recordCall("RunAdbCommand", deviceID, fullCmd)
	return m.RunAdbCommandResult, m.RunAdbCommandError
}

// App Management

func (m *MockTetherApp) ListPackages(deviceID string, packageType string) ([]AppPackage, error) {
	m.recordCall("ListPackages", deviceID, packageType)
	return m.ListPackagesResult, m.ListPackagesError
}

func (m *MockTetherApp) GetAppInfo(deviceID, packageName string, force bool) (AppPackage, error) {
	m.recordCall("GetAppInfo", deviceID, packageName, force)
	return m.GetAppInfoResult, m.GetAppInfoError
}

func (m *MockTetherApp) InstallAPK(deviceID string, path string) (string, error) {
	m.recordCall("InstallAPK", deviceID, path)
	return m.InstallAPKResult, m.InstallAPKError
}

func (m *MockTetherApp) UninstallApp(deviceID, packageName string) (string, error) {
	m.recordCall("UninstallApp", deviceID, packageName)
	return m.UninstallAppResult, m.UninstallAppError
}

func (m *MockTetherApp) DisableApp(deviceID, packageName string) (string, error) {
	m.recordCall("DisableApp", deviceID, packageName)
	return m.DisableAppResult, m.DisableAppError
}

func (m *MockTetherApp) EnableApp(deviceID, packageName string) (string, error) {
	m.recordCall("EnableApp", deviceID, packageName)
	return m.EnableAppResult, m.EnableAppError
}

func (m *MockTetherApp) ClearAppData(deviceID, packageName string) (string, error) {
	m.recordCall("ClearAppData", deviceID, packageName)
	return m.ClearAppDataResult, m.ClearAppDataError
}

func (m *MockTetherApp) ForceStopApp(deviceID, packageName string) (string, error) {
	m.recordCall("ForceStopApp", deviceID, packageName)
	return m.ForceStopAppResult, m.ForceStopAppError
}

func (m *MockTetherApp) StartApp(deviceID, packageName string) (string, error) {
	m.recordCall("StartApp", deviceID, packageName)
	return m.StartAppResult, m.StartAppError
}

func (m *MockTetherApp) IsAppRunning(deviceID, packageName string) (bool, error) {
	m.recordCall("IsAppRunning", deviceID, packageName)
	return m.IsAppRunningResult, m.IsAppRunningError
}

// Batch Operations

func (m *MockTetherApp) BatchInstallAPK(deviceIDs []string, path string) (BatchResult, error) {
	m.recordCall("BatchInstallAPK", deviceIDs, path)
	return m.BatchInstallAPKResult, m.BatchInstallAPKError
}

func (m *MockTetherApp) BatchUninstallApp(deviceIDs []string, packageName string) (BatchResult, error) {
	m.recordCall("BatchUninstallApp", deviceIDs, packageName)
	return m.BatchUninstallAppResult, m.BatchUninstallAppError
}

func (m *MockTetherApp) BatchRebootDevices(deviceIDs []string, mode string) (BatchResult, error) {
	m.recordCall("BatchRebootDevices", deviceIDs, mode)
	return m.BatchRebootDevicesResult, m.BatchRebootDevicesError
}

// Logcat

func (m *MockTetherApp) StartLogcat(deviceID, filter, minLevel string) error {
	m.recordCall("StartLogcat", deviceID, filter, minLevel)
	return m.StartLogcatError
}

func (m *MockTetherApp) StopLogcat() {
	m.recordCall("StopLogcat")
}

func (m *MockTetherApp) LogcatRunning() bool {
	m.recordCall("LogcatRunning")
	return m.LogcatRunningResult
}

func (m *MockTetherApp) SaveLogcat(destDir string) (string, error) {
	m.recordCall("SaveLogcat", destDir)
	return m.SaveLogcatResult, m.SaveLogcatError
}

// Utility

func (m *MockTetherApp) GetAppVersion() string {
	return m.AppVersion
}

// Setup helpers

// SetupWithDevices configures the mock to return the given devices
func (m *MockTetherApp) SetupWithDevices(devices ...Device) *MockTetherApp {
	m.GetDevicesResult = devices
	return m
}

// SetupWithError configures a specific method to return an error
func (m *MockTetherApp) SetupWithError(method string, err error) *MockTetherApp {
	switch method {
	case "GetDevices":
		m.GetDevicesError = err
	case "GetDeviceInfo":
		m.GetDeviceInfoError = err
	case "GetBatteryLevel":
		m.GetBatteryLevelError = err
	case "AdbConnect":
		m.AdbConnectError = err
	case "AdbDisconnect":
		m.AdbDisconnectError = err
	case "AdbPair":
		m.AdbPairError = err
	case "SwitchToWireless":
		m.SwitchToWirelessError = err
	case "GetDeviceIP":
		m.GetDeviceIPError = err
	case "RebootDevice":
		m.RebootDeviceError = err
	case "RunAdbCommand":
		m.RunAdbCommandError = err
	case "ListPackages":
		m.ListPackagesError = err
	case "GetAppInfo":
		m.GetAppInfoError = err
	case "InstallAPK":
		m.InstallAPKError = err
	case "UninstallApp":
		m.UninstallAppError = err
	case "DisableApp":
		m.DisableAppError = err
	case "EnableApp":
		m.EnableAppError = err
	case "ClearAppData":
		m.ClearAppDataError = err
	case "ForceStopApp":
		m.ForceStopAppError = err
	case "StartApp":
		m.StartAppError = err
	case "IsAppRunning":
		m.IsAppRunningError = err
	case "BatchInstallAPK":
		m.BatchInstallAPKError = err
	case "BatchUninstallApp":
		m.BatchUninstallAppError = err
	case "BatchRebootDevices":
		m.BatchRebootDevicesError = err
	case "StartLogcat":
		m.StartLogcatError = err
	case "SaveLogcat":
		m.SaveLogcatError = err
	}
	return m
}

// Common test errors
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDeviceOffline   = errors.New("device offline")
	ErrPackageNotFound = errors.New("package not found")
)

// SampleDevice returns a sample device for testing
func SampleDevice(id string) Device {
	return Device{
		ID:         id,
		Serial:     id,
		State:      "device",
		Model:      "Pixel 6",
		Brand:      "Google",
		Type:       "wired",
		IDs:        []string{id},
		Battery:    87,
		LastActive: 1700000000000,
	}
}

// SampleDeviceInfo returns sample device info for testing
func SampleDeviceInfo() DeviceInfo {
	return DeviceInfo{
		Model:        "Pixel 6",
		Brand:        "Google",
		Manufacturer: "Google",
		AndroidVer:   "14",
		SDK:          "34",
		ABI:          "arm64-v8a",
		Serial:       "abc123",
		Resolution:   "1080x2400",
		Density:      "420",
		Battery:      87,
		Props:        map[string]string{"ro.build.id": "AP1A.240405.002"},
	}
}

// SamplePackage returns a sample app package for testing
func SamplePackage(name string) AppPackage {
	return AppPackage{
		Name:        name,
		Label:       "Sample App",
		Type:        "user",
		State:       "enabled",
		VersionName: "1.2.3",
		VersionCode: "10203",
	}
}
