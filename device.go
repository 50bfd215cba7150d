package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"Tether/pkg/adb"
	"Tether/pkg/cache"
)

// GetDevices returns the currently known devices in a stable order:
// pinned first, then by most recent activity, with adb's own ordering as
// the final tiebreaker.
func (a *App) GetDevices(forceLog bool) ([]Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	output, err := a.adb.Output(ctx, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	entries := adb.ParseDevices(output)

	var history map[string]HistoryDevice
	if a.cacheService != nil {
		history = a.cacheService.GetHistory()
	}

	devices := make([]Device, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		d := Device{
			ID:      e.ID,
			Serial:  e.ID,
			State:   e.State,
			Model:   e.Model,
			IDs:     []string{e.ID},
			Battery: -1,
		}
		if e.Wireless {
			d.Type = "wireless"
			d.WifiAddr = e.ID
		} else {
			d.Type = "wired"
		}
		devices[i] = d

		if e.State != "device" {
			// Offline and unauthorized devices can still be named from history
			if hd, ok := history[e.ID]; ok {
				devices[i].Model = pick(devices[i].Model, hd.Model)
				devices[i].Brand = hd.Brand
			}
			continue
		}

		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			a.enrichDevice(ctx, &devices[idx], id)
		}(i, e.ID)
	}
	wg.Wait()

	// Remember online devices for wireless reconnect later
	if a.cacheService != nil {
		changed := false
		for _, d := range devices {
			if d.State != "device" {
				continue
			}
			a.cacheService.RememberDevice(cache.HistoryDevice{
				Serial:   d.Serial,
				Model:    d.Model,
				Brand:    d.Brand,
				WifiAddr: d.WifiAddr,
				LastSeen: time.Now().Unix(),
			})
			changed = true
		}
		if changed {
			go a.cacheService.SaveHistory()
		}

		lastActive := a.cacheService.GetAllLastActive()
		pinned := a.cacheService.GetPinnedSerial()
		for i := range devices {
			if ts, ok := lastActive[devices[i].Serial]; ok {
				devices[i].LastActive = ts
			}
			if devices[i].Serial == pinned {
				devices[i].IsPinned = true
			}
		}
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].IsPinned != devices[j].IsPinned {
			return devices[i].IsPinned
		}
		return devices[i].LastActive > devices[j].LastActive
	})

	prev := int(a.lastDevCount.Load())
	if forceLog || len(devices) != prev {
		a.Log("GetDevices returning %d devices (prev: %d)", len(devices), prev)
		a.lastDevCount.Store(int32(len(devices)))
	}

	return devices, nil
}

// enrichDevice fills serial, brand, model and battery for an online device
func (a *App) enrichDevice(ctx context.Context, d *Device, id string) {
	qCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := a.adb.Shell(qCtx, id,
		"getprop ro.serialno; getprop ro.product.manufacturer; getprop ro.product.model")
	if err == nil && res.Success() {
		parts := strings.Split(res.Stdout, "\n")
		if len(parts) >= 1 && strings.TrimSpace(parts[0]) != "" {
			d.Serial = strings.TrimSpace(parts[0])
		}
		if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
			d.Brand = strings.TrimSpace(parts[1])
		}
		if len(parts) >= 3 && strings.TrimSpace(parts[2]) != "" {
			d.Model = strings.ReplaceAll(strings.TrimSpace(parts[2]), "_", " ")
		}
	} else if err != nil {
		a.Log("Failed to fetch props for %s: %v", id, err)
	}

	if level, err := a.getBatteryLevel(qCtx, id); err == nil {
		d.Battery = level
	}
}

func pick(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

// GetDeviceInfo returns detailed information about a device
func (a *App) GetDeviceInfo(deviceID string) (DeviceInfo, error) {
	info := DeviceInfo{Battery: -1, Props: make(map[string]string)}

	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return info, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := a.adb.Output(ctx, "-s", deviceID, "shell", "getprop")
	if err != nil {
		return info, fmt.Errorf("failed to read device properties: %w", err)
	}

	info.Props = adb.ParseProps(output)
	info.Model = info.Props["ro.product.model"]
	info.Brand = info.Props["ro.product.brand"]
	info.Manufacturer = info.Props["ro.product.manufacturer"]
	info.AndroidVer = info.Props["ro.build.version.release"]
	info.SDK = info.Props["ro.build.version.sdk"]
	info.ABI = info.Props["ro.product.cpu.abi"]
	info.Serial = info.Props["ro.serialno"]

	quick := func(shellArgs ...string) string {
		qCtx, qCancel := context.WithTimeout(ctx, 2*time.Second)
		defer qCancel()
		res, err := a.adb.Shell(qCtx, deviceID, shellArgs...)
		if err != nil || !res.Success() {
			return ""
		}
		return strings.TrimSpace(res.Stdout)
	}

	info.Resolution = strings.TrimPrefix(quick("wm", "size"), "Physical size: ")
	info.Density = strings.TrimPrefix(quick("wm", "density"), "Physical density: ")

	if level, err := a.getBatteryLevel(ctx, deviceID); err == nil {
		info.Battery = level
	}

	return info, nil
}

// GetBatteryLevel returns the battery charge percentage for a device
func (a *App) GetBatteryLevel(deviceID string) (int, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return -1, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.getBatteryLevel(ctx, deviceID)
}

func (a *App) getBatteryLevel(ctx context.Context, deviceID string) (int, error) {
	res, err := a.adb.Shell(ctx, deviceID, "dumpsys", "battery")
	if err != nil {
		return -1, err
	}
	if !res.Success() {
		return -1, fmt.Errorf("dumpsys battery failed: %s", strings.TrimSpace(res.Combined()))
	}
	level := adb.ParseBatteryLevel(res.Stdout)
	if level < 0 {
		return -1, fmt.Errorf("battery level not reported")
	}
	return level, nil
}

// AdbPair pairs with a device over wireless debugging
func (a *App) AdbPair(host, port, code string) (string, error) {
	addr, err := adb.ValidateAddress(host, port)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("pairing code is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := a.adb.Run(ctx, "pair", addr, code)
	if err != nil {
		return "", fmt.Errorf("pairing failed: %w", err)
	}
	out := res.Combined()
	if !res.Success() || strings.Contains(strings.ToLower(out), "failed") {
		LogUserAction(ActionDevicePair, addr, map[string]interface{}{"success": false})
		return out, fmt.Errorf("pairing failed: %s", strings.TrimSpace(out))
	}

	LogUserAction(ActionDevicePair, addr, map[string]interface{}{"success": true})
	return out, nil
}

// AdbConnect connects to a device over TCP. adb exits zero even on
// failure, so the output text is classified to decide the result.
func (a *App) AdbConnect(host, port string) (string, error) {
	timer := StartOperation("device", "adb_connect").AddDetail("host", host)

	addr, err := adb.ValidateAddress(host, port)
	if err != nil {
		timer.EndWithError(err)
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Drop any stale connection first
	_, _ = a.adb.Run(ctx, "disconnect", addr)

	res, err := a.adb.Run(ctx, "connect", addr)
	if err != nil {
		timer.EndWithError(err)
		return "", fmt.Errorf("connection failed: %w", err)
	}

	out := strings.TrimSpace(res.Combined())
	outcome := adb.ClassifyConnect(out)

	switch outcome {
	case adb.ConnectOK, adb.ConnectAlready:
		timer.End()
		LogUserAction(ActionDeviceConnect, addr, map[string]interface{}{
			"success": true,
			"output":  out,
		})
		a.emit("devices-changed")
		return out, nil
	case adb.ConnectRefused:
		timer.EndWithError(fmt.Errorf("connection refused"))
		return out, fmt.Errorf("connection refused by %s (is wireless debugging enabled?)", addr)
	case adb.ConnectUnreachable:
		timer.EndWithError(fmt.Errorf("unreachable"))
		return out, fmt.Errorf("could not reach %s: %s", addr, out)
	default:
		timer.EndWithError(fmt.Errorf("unrecognized output"))
		return out, fmt.Errorf("connect failed: %s", out)
	}
}

// AdbDisconnect disconnects from a wireless device
func (a *App) AdbDisconnect(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("address is required")
	}
	if err := adb.ValidateDeviceID(address); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := a.adb.Run(ctx, "disconnect", address)
	if err != nil {
		return "", fmt.Errorf("disconnection failed: %w", err)
	}
	out := res.Combined()
	if !res.Success() && !strings.Contains(out, "no such device") {
		return out, fmt.Errorf("disconnection failed: %s", strings.TrimSpace(out))
	}

	LogUserAction(ActionDeviceDisconnect, address, nil)
	a.emit("devices-changed")
	return "disconnected", nil
}

// GetDeviceIP gets the local Wi-Fi IP address of the device
func (a *App) GetDeviceIP(deviceID string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := a.adb.Shell(ctx, deviceID,
		"ip addr show wlan0 | grep 'inet ' | awk '{print $2}' | cut -d/ -f1")
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(res.Stdout)

	if ip == "" {
		res, _ = a.adb.Shell(ctx, deviceID, "getprop", "dhcp.wlan0.ipaddress")
		if res.Success() {
			ip = strings.TrimSpace(res.Stdout)
		}
	}

	if ip == "" {
		return "", fmt.Errorf("could not find device IP (ensure Wi-Fi is on)")
	}
	return ip, nil
}

// SwitchToWireless enables TCP/IP mode on the device and connects to it
func (a *App) SwitchToWireless(deviceID string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}

	ip, err := a.GetDeviceIP(deviceID)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := a.adb.Run(ctx, "-s", deviceID, "tcpip", "5555")
	if err != nil {
		return "", fmt.Errorf("failed to enable tcpip mode: %w", err)
	}
	if !res.Success() {
		return res.Combined(), fmt.Errorf("failed to enable tcpip mode: %s", strings.TrimSpace(res.Combined()))
	}

	// adbd restarts in TCP mode; give it a moment before connecting
	time.Sleep(1 * time.Second)

	return a.AdbConnect(ip, "5555")
}

// RebootDevice reboots the device into the given mode: normal, recovery,
// bootloader or poweroff.
func (a *App) RebootDevice(deviceID, mode string) (string, error) {
	args, err := adb.RebootArgs(deviceID, adb.RebootMode(mode))
	if err != nil {
		return "", err
	}

	if err := a.beginDeviceOp(deviceID, "reboot"); err != nil {
		return "", err
	}
	defer a.endDeviceOp(deviceID)

	a.Log("Rebooting %s (mode: %s)", deviceID, mode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := a.adb.Run(ctx, args...)
	if err != nil {
		LogUserAction(ActionDeviceReboot, deviceID, map[string]interface{}{"mode": mode, "success": false})
		return "", fmt.Errorf("reboot failed: %w", err)
	}
	// The device usually drops the connection mid-command; treat output
	// mentioning a closed connection as success.
	out := strings.TrimSpace(res.Combined())
	if !res.Success() && out != "" && !strings.Contains(out, "closed") {
		LogUserAction(ActionDeviceReboot, deviceID, map[string]interface{}{"mode": mode, "success": false})
		return out, fmt.Errorf("reboot failed: %s", out)
	}

	LogUserAction(ActionDeviceReboot, deviceID, map[string]interface{}{"mode": mode, "success": true})
	a.emit("devices-changed")
	return "ok", nil
}

// RestartAdbServer kills and restarts the ADB server. Long-running
// ADB-dependent processes must stop first or they end up orphaned.
func (a *App) RestartAdbServer() (string, error) {
	a.Log("Restarting ADB server, stopping dependent processes...")

	a.StopLogcat()
	a.StopDeviceMonitor()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, _ = a.adb.Run(ctx, "kill-server")
	time.Sleep(500 * time.Millisecond)

	res, err := a.adb.Run(ctx, "start-server")
	if err != nil {
		return "", fmt.Errorf("failed to start adb server: %w", err)
	}
	if !res.Success() {
		return res.Combined(), fmt.Errorf("failed to start adb server: %s", strings.TrimSpace(res.Combined()))
	}

	a.StartDeviceMonitor()
	return "ADB server restarted successfully", nil
}

// RunAdbCommand executes an arbitrary ADB command against a device with a
// default 30s timeout
func (a *App) RunAdbCommand(deviceID string, fullCmd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.RunAdbCommandWithContext(ctx, deviceID, fullCmd)
}

// RunAdbCommandWithContext executes an arbitrary ADB command with caller
// supplied timeout control
func (a *App) RunAdbCommandWithContext(ctx context.Context, deviceID string, fullCmd string) (string, error) {
	if err := adb.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}

	fullCmd = strings.TrimSpace(fullCmd)
	if fullCmd == "" {
		return "", nil
	}

	args := []string{"-s", deviceID}
	if strings.HasPrefix(fullCmd, "shell ") {
		args = append(args, "shell", strings.TrimPrefix(fullCmd, "shell "))
	} else {
		args = append(args, strings.Fields(fullCmd)...)
	}

	LogUserAction(ActionShellCommand, deviceID, map[string]interface{}{"command": fullCmd})

	res, err := a.adb.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}
	if !res.Success() {
		return res.Combined(), fmt.Errorf("command failed: %s", strings.TrimSpace(res.Combined()))
	}
	return strings.TrimSpace(res.Combined()), nil
}

// ========================================
// Device History & Pinning
// ========================================

// GetHistoryDevices returns remembered devices, newest first
func (a *App) GetHistoryDevices() []HistoryDevice {
	if a.cacheService == nil {
		return nil
	}
	history := a.cacheService.GetHistory()
	result := make([]HistoryDevice, 0, len(history))
	for _, hd := range history {
		result = append(result, hd)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastSeen > result[j].LastSeen
	})
	return result
}

// RemoveHistoryDevice forgets a remembered device
func (a *App) RemoveHistoryDevice(serial string) error {
	if a.cacheService == nil {
		return nil
	}
	a.cacheService.ForgetDevice(serial)
	return a.cacheService.SaveHistory()
}

// TogglePinDevice pins or unpins a device to the top of the list
func (a *App) TogglePinDevice(serial string) {
	if a.cacheService == nil {
		return
	}
	if a.cacheService.GetPinnedSerial() == serial {
		a.cacheService.SetPinnedSerial("")
	} else {
		a.cacheService.SetPinnedSerial(serial)
	}
	go a.cacheService.SaveSettings()
}
