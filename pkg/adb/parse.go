package adb

import (
	"strconv"
	"strings"
)

// DeviceEntry is one row of `adb devices -l`, split into the serial, the
// connection state, and the optional key:value qualifiers.
type DeviceEntry struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Model    string `json:"model"`
	Product  string `json:"product"`
	Device   string `json:"device"`
	USB      string `json:"usb"`
	Wireless bool   `json:"wireless"`
	MDNS     bool   `json:"mdns"`
}

// ParseDevices turns `adb devices -l` output into entries, preserving the
// order adb printed them in. The header line and blank lines are skipped;
// daemon startup chatter ("* daemon not running ...") is ignored.
func ParseDevices(output string) []DeviceEntry {
	entries := []DeviceEntry{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entry := DeviceEntry{ID: fields[0], State: fields[1]}
		for _, f := range fields[2:] {
			switch {
			case strings.HasPrefix(f, "model:"):
				entry.Model = strings.ReplaceAll(strings.TrimPrefix(f, "model:"), "_", " ")
			case strings.HasPrefix(f, "product:"):
				entry.Product = strings.TrimPrefix(f, "product:")
			case strings.HasPrefix(f, "device:"):
				entry.Device = strings.TrimPrefix(f, "device:")
			case strings.HasPrefix(f, "usb:"):
				entry.USB = strings.TrimPrefix(f, "usb:")
			}
		}
		if strings.Contains(entry.ID, ":") {
			entry.Wireless = true
		}
		if strings.Contains(entry.ID, "_adb-tls-connect") || strings.Contains(entry.ID, "._adb") {
			entry.MDNS = true
			entry.Wireless = true
		}
		entries = append(entries, entry)
	}
	return entries
}

// ParseProps turns `adb shell getprop` output into a map. Lines look like
// [ro.product.model]: [Pixel 7]; anything else is skipped.
func ParseProps(output string) map[string]string {
	props := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		sep := strings.Index(line, "]: [")
		if sep < 0 {
			continue
		}
		key := line[1:sep]
		val := strings.TrimSuffix(line[sep+4:], "]")
		if key != "" {
			props[key] = val
		}
	}
	return props
}

// ParsePackages turns `pm list packages` output into package names. Each
// useful line is "package:<name>"; with -f the name carries an apk path
// prefix ("package:/path/base.apk=<name>") which is stripped.
func ParsePackages(output string) []string {
	pkgs := []string{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "package:") {
			continue
		}
		name := strings.TrimPrefix(line, "package:")
		if eq := strings.LastIndex(name, "="); eq >= 0 {
			name = name[eq+1:]
		}
		if name != "" {
			pkgs = append(pkgs, name)
		}
	}
	return pkgs
}

// ParseBatteryLevel extracts the charge percentage from `dumpsys battery`
// output. Returns -1 when no level line is present.
func ParseBatteryLevel(output string) int {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "level:") {
			val := strings.TrimSpace(strings.TrimPrefix(line, "level:"))
			if level, err := strconv.Atoi(val); err == nil {
				return level
			}
		}
	}
	return -1
}

// ConnectOutcome classifies the result of `adb connect`. adb exits zero
// even when the connection fails, so the output text is the only signal.
type ConnectOutcome int

const (
	// ConnectUnknown means the output matched none of the known phrases;
	// callers should surface the raw text.
	ConnectUnknown ConnectOutcome = iota
	ConnectOK
	ConnectAlready
	ConnectRefused
	ConnectUnreachable
)

// ClassifyConnect maps `adb connect` output to an outcome. "already
// connected" is checked before "connected to" because the former contains
// the latter.
func ClassifyConnect(output string) ConnectOutcome {
	out := strings.ToLower(output)
	switch {
	case strings.Contains(out, "already connected"):
		return ConnectAlready
	case strings.Contains(out, "connected to"):
		return ConnectOK
	case strings.Contains(out, "connection refused"):
		return ConnectRefused
	case strings.Contains(out, "unable to connect"), strings.Contains(out, "failed to connect"):
		return ConnectUnreachable
	default:
		return ConnectUnknown
	}
}
