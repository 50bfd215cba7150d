package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// PackageInfo represents cached app package information
type PackageInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	State       string `json:"state"`
	VersionName string `json:"versionName"`
	VersionCode string `json:"versionCode"`
}

// HistoryDevice is a device remembered across sessions so it can be
// offered for wireless reconnect even while absent.
type HistoryDevice struct {
	Serial   string `json:"serial"`
	Model    string `json:"model"`
	Brand    string `json:"brand"`
	WifiAddr string `json:"wifiAddr"`
	LastSeen int64  `json:"lastSeen"`
}

// Settings represents persistent application settings
type Settings struct {
	LastActive   map[string]int64 `json:"lastActive"`
	PinnedSerial string           `json:"pinnedSerial"`
	WatchDir     string           `json:"watchDir"`
}

// Service manages application cache and settings persistence
type Service struct {
	// Paths
	configDir    string
	cachePath    string
	historyPath  string
	settingsPath string

	// Package metadata cache
	pkgCache   map[string]PackageInfo
	pkgCacheMu sync.RWMutex

	// Settings state (kept in sync with file)
	lastActive   map[string]int64
	lastActiveMu sync.RWMutex

	pinnedSerial string
	watchDir     string
	settingsMu   sync.RWMutex

	// Device history
	history   map[string]HistoryDevice
	historyMu sync.RWMutex

	// Logger function (optional)
	logFunc func(format string, args ...interface{})
}

// Config for creating a new Service
type Config struct {
	ConfigDir string
	LogFunc   func(format string, args ...interface{})
}

// New creates a new Service instance
func New(cfg Config) (*Service, error) {
	configDir := cfg.ConfigDir
	if configDir == "" {
		var err error
		configDir, err = os.UserConfigDir()
		if err != nil {
			configDir = os.TempDir()
		}
		configDir = filepath.Join(configDir, "Tether")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	s := &Service{
		configDir:    configDir,
		cachePath:    filepath.Join(configDir, "pkg_cache.json"),
		historyPath:  filepath.Join(configDir, "history.json"),
		settingsPath: filepath.Join(configDir, "settings.json"),
		pkgCache:     make(map[string]PackageInfo),
		lastActive:   make(map[string]int64),
		history:      make(map[string]HistoryDevice),
		logFunc:      cfg.LogFunc,
	}

	// Load persisted data
	s.loadCache()
	s.loadSettings()
	s.loadHistory()

	return s, nil
}

// log writes a log message if logFunc is set
func (s *Service) log(format string, args ...interface{}) {
	if s.logFunc != nil {
		s.logFunc(format, args...)
	}
}

// ========================================
// Package Cache Methods
// ========================================

// GetCachedPackage returns a cached package if it exists
func (s *Service) GetCachedPackage(packageName string) (PackageInfo, bool) {
	s.pkgCacheMu.RLock()
	defer s.pkgCacheMu.RUnlock()
	pkg, exists := s.pkgCache[packageName]
	return pkg, exists
}

// SetCachedPackage caches package information
func (s *Service) SetCachedPackage(packageName string, pkg PackageInfo) {
	s.pkgCacheMu.Lock()
	s.pkgCache[packageName] = pkg
	s.pkgCacheMu.Unlock()
}

// ClearPackageCache clears the entire package cache
func (s *Service) ClearPackageCache() {
	s.pkgCacheMu.Lock()
	s.pkgCache = make(map[string]PackageInfo)
	s.pkgCacheMu.Unlock()
}

// SaveCache persists the package cache to disk
func (s *Service) SaveCache() error {
	s.pkgCacheMu.RLock()
	data, err := json.Marshal(s.pkgCache)
	s.pkgCacheMu.RUnlock()

	if err != nil {
		s.log("Error marshaling cache: %v", err)
		return err
	}

	if err := os.WriteFile(s.cachePath, data, 0644); err != nil {
		s.log("Error saving cache to %s: %v", s.cachePath, err)
		return err
	}
	return nil
}

func (s *Service) loadCache() {
	s.pkgCacheMu.Lock()
	defer s.pkgCacheMu.Unlock()

	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return
	}

	_ = json.Unmarshal(data, &s.pkgCache)
}

// ========================================
// Settings Methods
// ========================================

// GetLastActive returns the last active timestamp for a device
func (s *Service) GetLastActive(deviceID string) int64 {
	s.lastActiveMu.RLock()
	defer s.lastActiveMu.RUnlock()
	return s.lastActive[deviceID]
}

// SetLastActive updates the last active timestamp for a device
func (s *Service) SetLastActive(deviceID string, timestamp int64) {
	s.lastActiveMu.Lock()
	s.lastActive[deviceID] = timestamp
	s.lastActiveMu.Unlock()
}

// GetAllLastActive returns a copy of all last active timestamps
func (s *Service) GetAllLastActive() map[string]int64 {
	s.lastActiveMu.RLock()
	defer s.lastActiveMu.RUnlock()
	result := make(map[string]int64, len(s.lastActive))
	for k, v := range s.lastActive {
		result[k] = v
	}
	return result
}

// GetPinnedSerial returns the pinned device serial
func (s *Service) GetPinnedSerial() string {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.pinnedSerial
}

// SetPinnedSerial sets the pinned device serial
func (s *Service) SetPinnedSerial(serial string) {
	s.settingsMu.Lock()
	s.pinnedSerial = serial
	s.settingsMu.Unlock()
}

// GetWatchDir returns the APK drop folder, or "" when disabled
func (s *Service) GetWatchDir() string {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.watchDir
}

// SetWatchDir sets the APK drop folder
func (s *Service) SetWatchDir(dir string) {
	s.settingsMu.Lock()
	s.watchDir = dir
	s.settingsMu.Unlock()
}

// SaveSettings persists settings to disk
func (s *Service) SaveSettings() error {
	s.lastActiveMu.RLock()
	lastActive := make(map[string]int64)
	for k, v := range s.lastActive {
		lastActive[k] = v
	}
	s.lastActiveMu.RUnlock()

	s.settingsMu.RLock()
	settings := Settings{
		LastActive:   lastActive,
		PinnedSerial: s.pinnedSerial,
		WatchDir:     s.watchDir,
	}
	s.settingsMu.RUnlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(s.settingsPath, data, 0644)
}

func (s *Service) loadSettings() {
	if s.settingsPath == "" {
		return
	}
	data, err := os.ReadFile(s.settingsPath)
	if err != nil {
		return
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return
	}

	s.lastActiveMu.Lock()
	if settings.LastActive != nil {
		s.lastActive = settings.LastActive
	}
	s.lastActiveMu.Unlock()

	s.settingsMu.Lock()
	s.pinnedSerial = settings.PinnedSerial
	s.watchDir = settings.WatchDir
	s.settingsMu.Unlock()
}

// ========================================
// Device History Methods
// ========================================

// GetHistory returns a copy of the remembered devices keyed by serial
func (s *Service) GetHistory() map[string]HistoryDevice {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	result := make(map[string]HistoryDevice, len(s.history))
	for k, v := range s.history {
		result[k] = v
	}
	return result
}

// RememberDevice records or refreshes a device in history
func (s *Service) RememberDevice(d HistoryDevice) {
	if d.Serial == "" {
		return
	}
	s.historyMu.Lock()
	existing, ok := s.history[d.Serial]
	if ok {
		if d.Model == "" {
			d.Model = existing.Model
		}
		if d.Brand == "" {
			d.Brand = existing.Brand
		}
		if d.WifiAddr == "" {
			d.WifiAddr = existing.WifiAddr
		}
	}
	s.history[d.Serial] = d
	s.historyMu.Unlock()
}

// ForgetDevice removes a device from history
func (s *Service) ForgetDevice(serial string) {
	s.historyMu.Lock()
	delete(s.history, serial)
	s.historyMu.Unlock()
}

// SaveHistory persists the device history to disk
func (s *Service) SaveHistory() error {
	s.historyMu.RLock()
	data, err := json.Marshal(s.history)
	s.historyMu.RUnlock()

	if err != nil {
		return err
	}
	return os.WriteFile(s.historyPath, data, 0644)
}

func (s *Service) loadHistory() {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &s.history)
}

// ========================================
// Path Accessors
// ========================================

// ConfigDir returns the configuration directory path
func (s *Service) ConfigDir() string {
	return s.configDir
}

// SettingsPath returns the settings file path
func (s *Service) SettingsPath() string {
	return s.settingsPath
}

// ========================================
// Shutdown
// ========================================

// Close saves all caches, history and settings before shutdown
func (s *Service) Close() error {
	if err := s.SaveCache(); err != nil {
		s.log("Error saving cache on close: %v", err)
	}
	if err := s.SaveHistory(); err != nil {
		s.log("Error saving history on close: %v", err)
	}
	if err := s.SaveSettings(); err != nil {
		s.log("Error saving settings on close: %v", err)
	}
	return nil
}
