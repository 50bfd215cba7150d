package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StartDeviceMonitor starts watching device connections using
// `adb track-devices`
func (a *App) StartDeviceMonitor() {
	a.deviceMonitorMu.Lock()
	defer a.deviceMonitorMu.Unlock()

	if a.deviceMonitorCancel != nil {
		return
	}
	if a.adb == nil || !a.adb.Available() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.deviceMonitorCancel = cancel
	go a.runDeviceMonitor(ctx)
}

// StopDeviceMonitor stops the device monitor
func (a *App) StopDeviceMonitor() {
	a.deviceMonitorMu.Lock()
	defer a.deviceMonitorMu.Unlock()

	if a.deviceMonitorCancel != nil {
		a.deviceMonitorCancel()
		a.deviceMonitorCancel = nil
	}
}

// runDeviceMonitor runs the device monitoring loop. track-devices keeps
// the connection open and writes a 4-hex-digit length prefix before each
// snapshot of the device list.
func (a *App) runDeviceMonitor(ctx context.Context) {
	var debounceTimer *time.Timer
	var debounceMu sync.Mutex

	emitDevicesChanged := func() {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(300*time.Millisecond, func() {
			devices, err := a.GetDevices(false)
			if err != nil {
				a.Log("Device monitor: failed to get devices: %v", err)
				return
			}
			a.emit("devices-changed", devices)
		})
		debounceMu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cmd := a.adb.Command(ctx, "track-devices")
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			a.Log("Device monitor: failed to create pipe: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}

		if err := cmd.Start(); err != nil {
			a.Log("Device monitor: failed to start: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}

		LogInfo("monitor").Msg("Device monitor started")

		buf := make([]byte, 4)
		for {
			select {
			case <-ctx.Done():
				cmd.Process.Kill()
				return
			default:
			}

			if _, err := stdout.Read(buf); err != nil {
				break
			}

			var length int
			fmt.Sscanf(string(buf), "%04x", &length)

			if length > 0 {
				data := make([]byte, length)
				if _, err := stdout.Read(data); err != nil {
					break
				}
			}

			emitDevicesChanged()
		}

		cmd.Wait()
		a.Log("Device monitor disconnected, restarting...")
		time.Sleep(1 * time.Second)
	}
}
