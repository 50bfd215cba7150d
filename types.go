package main

import (
	"Tether/pkg/cache"
	"Tether/pkg/types"
)

// Type aliases for backward compatibility with frontend bindings
type Device = types.Device
type DeviceInfo = types.DeviceInfo
type AppPackage = types.AppPackage
type BatchItemResult = types.BatchItemResult
type BatchResult = types.BatchResult
type HistoryDevice = cache.HistoryDevice
