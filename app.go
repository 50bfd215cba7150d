package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"Tether/pkg/adb"
	"Tether/pkg/cache"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx     context.Context
	adb     *adb.Runner
	version string

	// mcpMode suppresses webview event emission when running headless
	mcpMode bool

	cacheService *cache.Service

	// Logcat stream
	logcatCmd    *exec.Cmd
	logcatCancel context.CancelFunc
	logcatMu     sync.Mutex

	// Retained logcat lines for export
	logcatBuffer   []string
	logcatBufferMu sync.Mutex

	// In-flight mutating operations, keyed by device ID
	deviceOps   map[string]string
	deviceOpsMu sync.Mutex

	// Runtime logs
	runtimeLogs []string
	logsMu      sync.Mutex

	// Device tracking. lastDevCount is touched from both the frontend
	// and the monitor's debounce callback.
	lastDevCount        atomic.Int32
	deviceMonitorCancel context.CancelFunc
	deviceMonitorMu     sync.Mutex

	// APK drop folder watcher
	apkWatcher *APKWatcher
}

// NewApp creates a new App instance
func NewApp(version string) *App {
	return &App{
		version:   version,
		deviceOps: make(map[string]string),
	}
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	a.adb = adb.Resolve()
	if !a.adb.Available() {
		LogError("app").Err(a.adb.ResolveError()).Msg("adb executable not found")
	} else {
		LogInfo("app").Str("path", a.adb.Path()).Msg("Using adb")
	}

	svc, err := cache.New(cache.Config{LogFunc: a.Log})
	if err != nil {
		LogError("app").Err(err).Msg("Failed to initialize cache service")
	} else {
		a.cacheService = svc
		_ = InitLogger(PersistentLogConfig(svc.ConfigDir()))
	}

	LogAppState(StateStarting, map[string]interface{}{"version": a.version})

	a.StartDeviceMonitor()
	a.startAPKWatcher()

	LogAppState(StateReady, nil)
}

// Shutdown is called when the application is closing
func (a *App) Shutdown(ctx context.Context) {
	LogAppState(StateShuttingDown, nil)

	a.StopLogcat()
	a.StopDeviceMonitor()
	a.stopAPKWatcher()

	if a.cacheService != nil {
		_ = a.cacheService.Close()
	}

	LogAppState(StateStopped, nil)
	CloseLogger()
}

// GetAppVersion returns the application version
func (a *App) GetAppVersion() string {
	return a.version
}

// AdbAvailable reports whether the adb executable was found on startup
func (a *App) AdbAvailable() bool {
	return a.adb != nil && a.adb.Available()
}

// AdbPath returns the resolved adb executable path
func (a *App) AdbPath() string {
	if a.adb == nil {
		return ""
	}
	return a.adb.Path()
}

// Log adds a message to the runtime logs
func (a *App) Log(format string, args ...interface{}) {
	a.logsMu.Lock()
	defer a.logsMu.Unlock()
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	a.runtimeLogs = append(a.runtimeLogs, msg)
	if len(a.runtimeLogs) > 1000 {
		a.runtimeLogs = a.runtimeLogs[len(a.runtimeLogs)-1000:]
	}
	fmt.Println(msg)
}

// GetBackendLogs returns the captured backend logs
func (a *App) GetBackendLogs() []string {
	a.logsMu.Lock()
	defer a.logsMu.Unlock()
	logs := make([]string, len(a.runtimeLogs))
	copy(logs, a.runtimeLogs)
	return logs
}

// emit sends an event to the webview unless running headless
func (a *App) emit(event string, data ...interface{}) {
	if a.mcpMode || a.ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(a.ctx, event, data...)
}

// updateLastActive updates the last active timestamp for a device
func (a *App) updateLastActive(deviceID string) {
	if deviceID == "" || a.cacheService == nil {
		return
	}
	a.cacheService.SetLastActive(deviceID, time.Now().Unix())
	go a.cacheService.SaveSettings()
}

// ========================================
// Mutating Operation Guard
// ========================================

// beginDeviceOp claims the mutating-operation slot for a device. Queries
// never go through here; only one install/uninstall/disable/reboot may be
// in flight per device at a time.
func (a *App) beginDeviceOp(deviceID, op string) error {
	a.deviceOpsMu.Lock()
	defer a.deviceOpsMu.Unlock()
	if current, busy := a.deviceOps[deviceID]; busy {
		return fmt.Errorf("device %s is busy: %s in progress", deviceID, current)
	}
	a.deviceOps[deviceID] = op
	return nil
}

// endDeviceOp releases the mutating-operation slot
func (a *App) endDeviceOp(deviceID string) {
	a.deviceOpsMu.Lock()
	delete(a.deviceOps, deviceID)
	a.deviceOpsMu.Unlock()
}

// DeviceBusy reports the in-flight mutating operation for a device, if any
func (a *App) DeviceBusy(deviceID string) string {
	a.deviceOpsMu.Lock()
	defer a.deviceOpsMu.Unlock()
	return a.deviceOps[deviceID]
}

// ========================================
// Settings (exposed to frontend)
// ========================================

// GetWatchDir returns the configured APK drop folder
func (a *App) GetWatchDir() string {
	if a.cacheService == nil {
		return ""
	}
	return a.cacheService.GetWatchDir()
}

// SetWatchDir configures the APK drop folder and restarts the watcher
func (a *App) SetWatchDir(dir string) error {
	if a.cacheService == nil {
		return fmt.Errorf("settings not available")
	}
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("watch directory does not exist: %s", dir)
		}
	}
	a.cacheService.SetWatchDir(dir)
	_ = a.cacheService.SaveSettings()
	LogUserAction(ActionSettingsChange, "", map[string]interface{}{"watchDir": dir})

	a.stopAPKWatcher()
	a.startAPKWatcher()
	return nil
}

// ConfigDir returns the application config directory
func (a *App) ConfigDir() string {
	if a.cacheService != nil {
		return a.cacheService.ConfigDir()
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "Tether")
}
