package types

// Device represents an Android device
type Device struct {
	ID         string   `json:"id"`
	Serial     string   `json:"serial"`
	State      string   `json:"state"`
	Model      string   `json:"model"`
	Brand      string   `json:"brand"`
	Type       string   `json:"type"` // "wired", "wireless", or "both"
	IDs        []string `json:"ids"`
	WifiAddr   string   `json:"wifiAddr"`
	Battery    int      `json:"battery"` // -1 when unknown
	LastActive int64    `json:"lastActive"`
	IsPinned   bool     `json:"isPinned"`
}

// DeviceInfo contains detailed device information
type DeviceInfo struct {
	Model        string            `json:"model"`
	Brand        string            `json:"brand"`
	Manufacturer string            `json:"manufacturer"`
	AndroidVer   string            `json:"androidVer"`
	SDK          string            `json:"sdk"`
	ABI          string            `json:"abi"`
	Serial       string            `json:"serial"`
	Resolution   string            `json:"resolution"`
	Density      string            `json:"density"`
	Battery      int               `json:"battery"`
	Props        map[string]string `json:"props"`
}

// AppPackage represents an installed application
type AppPackage struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`  // "system" or "user"
	State       string `json:"state"` // "enabled" or "disabled"
	VersionName string `json:"versionName"`
	VersionCode string `json:"versionCode"`
}

// BatchItemResult is the per-device outcome of one batch operation item.
type BatchItemResult struct {
	DeviceID string `json:"deviceId"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// BatchResult summarizes a batch operation across devices.
type BatchResult struct {
	ID        string            `json:"id"`
	Operation string            `json:"operation"`
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}
