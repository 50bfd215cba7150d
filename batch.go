package main

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"Tether/pkg/adb"
)

// batchConcurrency bounds how many devices a batch touches at once
const batchConcurrency = 4

// runBatch fans an operation out over devices, one worker per device up
// to the concurrency cap. The per-device mutating-op guard still applies
// inside each operation, so a device with something already in flight
// reports busy instead of queueing.
func (a *App) runBatch(operation string, deviceIDs []string, fn func(deviceID string) (string, error)) BatchResult {
	result := BatchResult{
		ID:        uuid.NewString(),
		Operation: operation,
		Items:     make([]BatchItemResult, len(deviceIDs)),
	}

	LogUserAction(ActionBatchRun, "", map[string]interface{}{
		"batchId":   result.ID,
		"operation": operation,
		"devices":   len(deviceIDs),
	})

	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i, id := range deviceIDs {
		wg.Add(1)
		go func(idx int, deviceID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item := BatchItemResult{DeviceID: deviceID}
			if err := adb.ValidateDeviceID(deviceID); err != nil {
				item.Message = err.Error()
			} else if msg, err := fn(deviceID); err != nil {
				item.Message = err.Error()
			} else {
				item.Success = true
				item.Message = msg
			}
			result.Items[idx] = item

			a.emit("batch-progress", map[string]interface{}{
				"batchId": result.ID,
				"item":    item,
			})
		}(i, id)
	}
	wg.Wait()

	for _, item := range result.Items {
		if item.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	LogInfo("batch").
		Str("batchId", result.ID).
		Str("operation", operation).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Batch finished")

	a.emit("batch-finished", result)
	return result
}

// BatchInstallAPK installs the same APK on several devices
func (a *App) BatchInstallAPK(deviceIDs []string, path string) (BatchResult, error) {
	if len(deviceIDs) == 0 {
		return BatchResult{}, fmt.Errorf("no devices selected")
	}
	if err := adb.ValidateAPKPath(path); err != nil {
		return BatchResult{}, err
	}

	return a.runBatch("install", deviceIDs, func(deviceID string) (string, error) {
		return a.InstallAPK(deviceID, path)
	}), nil
}

// BatchUninstallApp uninstalls a package from several devices
func (a *App) BatchUninstallApp(deviceIDs []string, packageName string) (BatchResult, error) {
	if len(deviceIDs) == 0 {
		return BatchResult{}, fmt.Errorf("no devices selected")
	}
	if err := adb.ValidatePackageName(packageName); err != nil {
		return BatchResult{}, err
	}

	return a.runBatch("uninstall", deviceIDs, func(deviceID string) (string, error) {
		return a.UninstallApp(deviceID, packageName)
	}), nil
}

// BatchRebootDevices reboots several devices into the same mode
func (a *App) BatchRebootDevices(deviceIDs []string, mode string) (BatchResult, error) {
	if len(deviceIDs) == 0 {
		return BatchResult{}, fmt.Errorf("no devices selected")
	}
	if err := adb.ValidateRebootMode(adb.RebootMode(mode)); err != nil {
		return BatchResult{}, err
	}

	return a.runBatch("reboot", deviceIDs, func(deviceID string) (string, error) {
		return a.RebootDevice(deviceID, mode)
	}), nil
}
