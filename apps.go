package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"Tether/pkg/adb"
	"Tether/pkg/cache"
)

// ListPackages returns installed packages with their type and state.
// packageType is "user" (default), "system" or "all". Listing always runs
// as user 0 so work-profile clones don't show up twice.
func (a *App) ListPackages(deviceID string, packageType string) ([]AppPackage, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	if packageType == "" {
		packageType = "user"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Disabled set first so state can be tagged in one pass
	disabled := make(map[string]bool)
	res, err := a.adb.Shell(ctx, deviceID, "pm", "list", "packages", "--user", "0", "-d")
	if err == nil && res.Success() {
		for _, name := range adb.ParsePackages(res.Stdout) {
			disabled[name] = true
		}
	}

	var packages []AppPackage

	fetch := func(flag, typeName string) error {
		args := []string{"pm", "list", "packages", "--user", "0"}
		if flag != "" {
			args = append(args, flag)
		}
		res, err := a.adb.Shell(ctx, deviceID, args...)
		if err != nil {
			return err
		}
		if !res.Success() {
			return fmt.Errorf("pm list packages exited %d: %s", res.ExitCode, strings.TrimSpace(res.Combined()))
		}
		for _, name := range adb.ParsePackages(res.Stdout) {
			state := "enabled"
			if disabled[name] {
				state = "disabled"
			}
			packages = append(packages, AppPackage{
				Name:  name,
				Type:  typeName,
				State: state,
			})
		}
		return nil
	}

	switch packageType {
	case "all":
		if err := fetch("-s", "system"); err != nil {
			return nil, fmt.Errorf("failed to list system packages: %w", err)
		}
		if err := fetch("-3", "user"); err != nil {
			return nil, fmt.Errorf("failed to list user packages: %w", err)
		}
	case "system":
		if err := fetch("-s", "system"); err != nil {
			return nil, fmt.Errorf("failed to list system packages: %w", err)
		}
	default:
		if err := fetch("-3", "user"); err != nil {
			return nil, fmt.Errorf("failed to list user packages: %w", err)
		}
	}

	// Fill cached metadata in parallel, bounded
	var wg sync.WaitGroup
	sem := make(chan struct{}, 10)
	for i := range packages {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			pkg := &packages[idx]
			if a.cacheService != nil {
				if cached, ok := a.cacheService.GetCachedPackage(pkg.Name); ok {
					pkg.Label = cached.Label
					pkg.VersionName = cached.VersionName
					pkg.VersionCode = cached.VersionCode
				}
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})

	return packages, nil
}

// GetAppInfo returns detailed information about an installed package,
// using the cache unless force is set
func (a *App) GetAppInfo(deviceID, packageName string, force bool) (AppPackage, error) {
	var pkg AppPackage
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return pkg, err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return pkg, err
	}

	if !force && a.cacheService != nil {
		if cached, ok := a.cacheService.GetCachedPackage(packageName); ok {
			return AppPackage{
				Name:        cached.Name,
				Label:       cached.Label,
				Type:        cached.Type,
				State:       cached.State,
				VersionName: cached.VersionName,
				VersionCode: cached.VersionCode,
			}, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := a.adb.Output(ctx, "-s", deviceID, "shell", "dumpsys", "package", packageName)
	if err != nil {
		return pkg, fmt.Errorf("failed to query package %s: %w", packageName, err)
	}

	pkg = parseDumpsysPackage(output, packageName)
	if pkg.Name == "" {
		return pkg, fmt.Errorf("package not found: %s", packageName)
	}

	if a.cacheService != nil {
		a.cacheService.SetCachedPackage(packageName, cache.PackageInfo{
			Name:        pkg.Name,
			Label:       pkg.Label,
			Type:        pkg.Type,
			State:       pkg.State,
			VersionName: pkg.VersionName,
			VersionCode: pkg.VersionCode,
		})
		go a.cacheService.SaveCache()
	}

	return pkg, nil
}

// parseDumpsysPackage extracts version and flags from dumpsys package
// output. Only the first "Package [name]" stanza is considered.
func parseDumpsysPackage(output, packageName string) AppPackage {
	pkg := AppPackage{State: "enabled"}

	inStanza := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "Package [") {
			if inStanza {
				break
			}
			if strings.HasPrefix(trimmed, "Package ["+packageName+"]") {
				inStanza = true
				pkg.Name = packageName
			}
			continue
		}
		if !inStanza {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "versionName="):
			pkg.VersionName = strings.TrimPrefix(trimmed, "versionName=")
		case strings.HasPrefix(trimmed, "versionCode="):
			fields := strings.Fields(strings.TrimPrefix(trimmed, "versionCode="))
			if len(fields) > 0 {
				pkg.VersionCode = fields[0]
			}
		case strings.HasPrefix(trimmed, "flags="):
			if strings.Contains(trimmed, "SYSTEM") {
				pkg.Type = "system"
			} else {
				pkg.Type = "user"
			}
		case strings.HasPrefix(trimmed, "enabled="):
			// enabled=2 and 3 are the disabled states
			val := strings.Fields(strings.TrimPrefix(trimmed, "enabled="))
			if len(val) > 0 && (val[0] == "2" || val[0] == "3") {
				pkg.State = "disabled"
			}
		}
	}

	return pkg
}

// ========================================
// App Control
// ========================================

// InstallAPK installs an APK on the device, replacing any existing
// version
func (a *App) InstallAPK(deviceID string, path string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidateAPKPath(path); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", &adb.UserInputError{Field: "apk path", Value: path, Reason: "file does not exist"}
	}

	if err := a.beginDeviceOp(deviceID, "install"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	a.updateLastActive(deviceID)
	timer := StartOperation("apps", "install_apk").AddDetail("path", path)
	a.Log("Installing APK %s to device %s", path, deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := a.adb.Run(ctx, "-s", deviceID, "install", "-r", path)
	if err != nil {
		timer.EndWithError(err)
		return "", fmt.Errorf("failed to install APK: %w", err)
	}
	out := res.Combined()
	if !res.Success() || strings.Contains(out, "Failure") {
		timer.EndWithError(fmt.Errorf("install rejected"))
		LogUserAction(ActionAppInstall, deviceID, map[string]interface{}{"path": path, "success": false})
		return out, fmt.Errorf("failed to install APK: %s", strings.TrimSpace(out))
	}

	timer.End()
	LogUserAction(ActionAppInstall, deviceID, map[string]interface{}{"path": path, "success": true})
	a.emit("packages-changed", deviceID)
	return out, nil
}

// UninstallApp uninstalls an app for user 0. When the full uninstall is
// refused (common for preinstalled apps) it falls back to removing the
// app for the current user while keeping data.
func (a *App) UninstallApp(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	if err := a.beginDeviceOp(deviceID, "uninstall"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	a.updateLastActive(deviceID)
	a.Log("Uninstalling %s from %s", packageName, deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := a.adb.Run(ctx, "-s", deviceID, "uninstall", "--user", "0", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to uninstall: %w", err)
	}
	out := res.Combined()
	if res.Success() && !strings.Contains(out, "Failure") {
		LogUserAction(ActionAppUninstall, deviceID, map[string]interface{}{"package": packageName, "success": true})
		a.emit("packages-changed", deviceID)
		return out, nil
	}

	LogDebug("apps").Str("package", packageName).Str("output", out).Msg("Standard uninstall failed, trying pm uninstall -k --user 0")
	res2, err2 := a.adb.Shell(ctx, deviceID, "pm", "uninstall", "-k", "--user", "0", packageName)
	if err2 != nil {
		return "", fmt.Errorf("failed to uninstall: %w", err2)
	}
	out2 := res2.Combined()
	if !res2.Success() || strings.Contains(out2, "Failure") {
		LogUserAction(ActionAppUninstall, deviceID, map[string]interface{}{"package": packageName, "success": false})
		return out2, fmt.Errorf("failed to uninstall: %s", strings.TrimSpace(out2))
	}

	LogUserAction(ActionAppUninstall, deviceID, map[string]interface{}{"package": packageName, "success": true})
	a.emit("packages-changed", deviceID)
	return out2, nil
}

// DisableApp disables the application for user 0. pm exits zero even when
// it refuses, so success is judged from the reported new state.
func (a *App) DisableApp(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	if err := a.beginDeviceOp(deviceID, "disable"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID, "pm", "disable-user", "--user", "0", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to disable app: %w", err)
	}
	out := res.Combined()
	if !strings.Contains(strings.ToLower(out), "new state: disabled") {
		LogUserAction(ActionAppDisable, deviceID, map[string]interface{}{"package": packageName, "success": false})
		return out, fmt.Errorf("failed to disable %s: %s", packageName, strings.TrimSpace(out))
	}

	LogUserAction(ActionAppDisable, deviceID, map[string]interface{}{"package": packageName, "success": true})
	a.emit("packages-changed", deviceID)
	return out, nil
}

// EnableApp re-enables a disabled application
func (a *App) EnableApp(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	if err := a.beginDeviceOp(deviceID, "enable"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID, "pm", "enable", "--user", "0", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to enable app: %w", err)
	}
	out := res.Combined()
	if !res.Success() {
		return out, fmt.Errorf("failed to enable %s: %s", packageName, strings.TrimSpace(out))
	}

	LogUserAction(ActionAppEnable, deviceID, map[string]interface{}{"package": packageName})
	a.emit("packages-changed", deviceID)
	return out, nil
}

// ClearAppData clears the application data
func (a *App) ClearAppData(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	if err := a.beginDeviceOp(deviceID, "clear"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID, "pm", "clear", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to clear data: %w", err)
	}
	out := strings.TrimSpace(res.Combined())
	if !res.Success() || !strings.Contains(out, "Success") {
		return out, fmt.Errorf("failed to clear data for %s: %s", packageName, out)
	}
	return out, nil
}

// ForceStopApp force stops the application
func (a *App) ForceStopApp(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID, "am", "force-stop", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to force stop: %w", err)
	}
	if !res.Success() {
		return res.Combined(), fmt.Errorf("failed to force stop: %s", strings.TrimSpace(res.Combined()))
	}
	return res.Combined(), nil
}

// StartApp launches the application via the monkey launcher shortcut
func (a *App) StartApp(deviceID, packageName string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	a.updateLastActive(deviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID, "monkey", "-p", packageName, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return "", fmt.Errorf("failed to start app: %w", err)
	}
	out := res.Combined()
	if !res.Success() || strings.Contains(out, "No activities found") {
		return out, fmt.Errorf("failed to start %s: %s", packageName, strings.TrimSpace(out))
	}
	return out, nil
}

// IsAppRunning checks whether the package has a live process
func (a *App) IsAppRunning(deviceID, packageName string) (bool, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return false, err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, _ := a.adb.Shell(ctx, deviceID, "pidof", packageName)
	if res.Success() && strings.TrimSpace(res.Stdout) != "" {
		return true, nil
	}

	res2, _ := a.adb.Shell(ctx, deviceID, "pgrep", "-f", packageName)
	return res2.Success() && strings.TrimSpace(res2.Stdout) != "", nil
}

// ExportAPK pulls an installed APK off the device into destDir and
// returns the local path
func (a *App) ExportAPK(deviceID, packageName, destDir string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	output, err := a.adb.Output(ctx, "-s", deviceID, "shell", "pm", "path", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to get APK path: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "package:") {
		return "", fmt.Errorf("unexpected output from pm path: %s", strings.TrimSpace(output))
	}
	remotePath := strings.TrimPrefix(strings.TrimSpace(lines[0]), "package:")

	if destDir == "" {
		home, _ := os.UserHomeDir()
		destDir = home
	}
	localPath := filepath.Join(destDir, packageName+".apk")

	res, err := a.adb.Run(ctx, "-s", deviceID, "pull", remotePath, localPath)
	if err != nil {
		return "", fmt.Errorf("failed to pull APK: %w", err)
	}
	if !res.Success() {
		return "", fmt.Errorf("failed to pull APK: %s", strings.TrimSpace(res.Combined()))
	}

	return localPath, nil
}
