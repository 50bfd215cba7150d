package adb

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UserInputError marks a rejection caused by caller-supplied values
// (device IDs, package names, addresses). No adb process is ever spawned
// for inputs that fail validation.
type UserInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *UserInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsUserInput reports whether err is a validation rejection.
func IsUserInput(err error) bool {
	var uie *UserInputError
	return errors.As(err, &uie)
}

var (
	deviceIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9._:\-]+$`)
	packageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
	hostPattern        = regexp.MustCompile(`^[a-zA-Z0-9.\-]+$`)
)

// ValidateDeviceID accepts USB serials, ip:port addresses, and mDNS
// service names. Whitespace and shell metacharacters are rejected so a
// device ID can never smuggle extra arguments into a command line.
func ValidateDeviceID(id string) error {
	if id == "" {
		return &UserInputError{Field: "device ID", Value: id, Reason: "must not be empty"}
	}
	if len(id) > 128 {
		return &UserInputError{Field: "device ID", Value: id, Reason: "too long"}
	}
	if !deviceIDPattern.MatchString(id) {
		return &UserInputError{Field: "device ID", Value: id, Reason: "contains characters outside [a-zA-Z0-9._:-]"}
	}
	return nil
}

// ValidatePackageName checks an Android package name: dot-separated
// identifier segments, same alphabet the package manager accepts.
func ValidatePackageName(name string) error {
	if name == "" {
		return &UserInputError{Field: "package name", Value: name, Reason: "must not be empty"}
	}
	if len(name) > 256 {
		return &UserInputError{Field: "package name", Value: name, Reason: "too long"}
	}
	if !packageNamePattern.MatchString(name) {
		return &UserInputError{Field: "package name", Value: name, Reason: "contains characters outside [a-zA-Z0-9._]"}
	}
	return nil
}

// ValidateAddress checks a host and port for `adb connect`/`pair` and
// returns the canonical host:port string.
func ValidateAddress(host, port string) (string, error) {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" {
		return "", &UserInputError{Field: "host", Value: host, Reason: "must not be empty"}
	}
	if !hostPattern.MatchString(host) {
		return "", &UserInputError{Field: "host", Value: host, Reason: "contains characters outside [a-zA-Z0-9.-]"}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", &UserInputError{Field: "port", Value: port, Reason: "must be a number between 1 and 65535"}
	}
	return host + ":" + port, nil
}

// RebootMode selects the target of a reboot request.
type RebootMode string

const (
	RebootNormal     RebootMode = "normal"
	RebootRecovery   RebootMode = "recovery"
	RebootBootloader RebootMode = "bootloader"
	RebootPowerOff   RebootMode = "poweroff"
)

// RebootArgs returns the fixed argument list for a reboot mode. The
// argument shape depends only on the mode, never on other input; power
// off has no `adb reboot` form and goes through the shell.
// ValidateRebootMode checks a reboot mode without building arguments,
// so callers can reject bad modes before touching any device.
func ValidateRebootMode(mode RebootMode) error {
	switch mode {
	case RebootNormal, RebootRecovery, RebootBootloader, RebootPowerOff:
		return nil
	default:
		return &UserInputError{Field: "reboot mode", Value: string(mode), Reason: "must be normal, recovery, bootloader or poweroff"}
	}
}

func RebootArgs(deviceID string, mode RebootMode) ([]string, error) {
	if err := ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	switch mode {
	case RebootNormal:
		return []string{"-s", deviceID, "reboot"}, nil
	case RebootRecovery:
		return []string{"-s", deviceID, "reboot", "recovery"}, nil
	case RebootBootloader:
		return []string{"-s", deviceID, "reboot", "bootloader"}, nil
	case RebootPowerOff:
		return []string{"-s", deviceID, "shell", "reboot", "-p"}, nil
	default:
		return nil, &UserInputError{Field: "reboot mode", Value: string(mode), Reason: "must be normal, recovery, bootloader or poweroff"}
	}
}

// ValidateAPKPath checks an install candidate before handing it to adb.
func ValidateAPKPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &UserInputError{Field: "apk path", Value: path, Reason: "must not be empty"}
	}
	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".apk") && !strings.HasSuffix(lower, ".apex") {
		return &UserInputError{Field: "apk path", Value: path, Reason: "must end in .apk or .apex"}
	}
	return nil
}
