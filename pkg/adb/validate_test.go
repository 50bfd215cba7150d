package adb

import (
	"reflect"
	"testing"
)

func TestValidateDeviceID(t *testing.T) {
	valid := []string{"ABC123", "emulator-5554", "192.168.1.50:5555", "adb-R5CT10XXXX-abcDEF._adb-tls-connect._tcp"}
	for _, id := range valid {
		if err := ValidateDeviceID(id); err != nil {
			t.Errorf("ValidateDeviceID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "ABC 123", "abc;rm -rf /", "id$(whoami)", "id\nreboot", "id|cat"}
	for _, id := range invalid {
		err := ValidateDeviceID(id)
		if err == nil {
			t.Errorf("ValidateDeviceID(%q) = nil, want error", id)
			continue
		}
		if !IsUserInput(err) {
			t.Errorf("ValidateDeviceID(%q) error not a user input error: %v", id, err)
		}
	}
}

func TestValidatePackageName(t *testing.T) {
	if err := ValidatePackageName("com.example.app"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	for _, name := range []string{"", "com.example;ls", "com example", "com.example/../x"} {
		if err := ValidatePackageName(name); err == nil || !IsUserInput(err) {
			t.Errorf("ValidatePackageName(%q) = %v, want user input error", name, err)
		}
	}
}

func TestValidateAddress(t *testing.T) {
	addr, err := ValidateAddress("192.168.1.50", "5555")
	if err != nil || addr != "192.168.1.50:5555" {
		t.Errorf("got %q, %v", addr, err)
	}
	if _, err := ValidateAddress(" phone.local ", "37123"); err != nil {
		t.Errorf("trimmed hostname rejected: %v", err)
	}

	bad := [][2]string{
		{"", "5555"},
		{"192.168.1.50", ""},
		{"192.168.1.50", "0"},
		{"192.168.1.50", "65536"},
		{"192.168.1.50", "abc"},
		{"host; reboot", "5555"},
	}
	for _, tc := range bad {
		if _, err := ValidateAddress(tc[0], tc[1]); err == nil || !IsUserInput(err) {
			t.Errorf("ValidateAddress(%q, %q) = %v, want user input error", tc[0], tc[1], err)
		}
	}
}

func TestRebootArgs(t *testing.T) {
	cases := []struct {
		mode RebootMode
		want []string
	}{
		{RebootNormal, []string{"-s", "ABC123", "reboot"}},
		{RebootRecovery, []string{"-s", "ABC123", "reboot", "recovery"}},
		{RebootBootloader, []string{"-s", "ABC123", "reboot", "bootloader"}},
		{RebootPowerOff, []string{"-s", "ABC123", "shell", "reboot", "-p"}},
	}
	for _, tc := range cases {
		got, err := RebootArgs("ABC123", tc.mode)
		if err != nil {
			t.Errorf("RebootArgs(%q) error: %v", tc.mode, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("RebootArgs(%q) = %v, want %v", tc.mode, got, tc.want)
		}
	}

	if _, err := RebootArgs("ABC123", "fastbootd"); err == nil || !IsUserInput(err) {
		t.Errorf("unknown mode accepted: %v", err)
	}
	if _, err := RebootArgs("bad id", RebootNormal); err == nil || !IsUserInput(err) {
		t.Errorf("bad device ID accepted: %v", err)
	}
}

func TestValidateRebootMode(t *testing.T) {
	for _, m := range []RebootMode{RebootNormal, RebootRecovery, RebootBootloader, RebootPowerOff} {
		if err := ValidateRebootMode(m); err != nil {
			t.Errorf("ValidateRebootMode(%q) = %v, want nil", m, err)
		}
	}
	for _, m := range []RebootMode{"", "sideload", "warp-speed"} {
		if err := ValidateRebootMode(m); err == nil || !IsUserInput(err) {
			t.Errorf("ValidateRebootMode(%q) = %v, want user input error", m, err)
		}
	}
}

func TestValidateAPKPath(t *testing.T) {
	if err := ValidateAPKPath("/tmp/app.apk"); err != nil {
		t.Errorf("valid path rejected: %v", err)
	}
	if err := ValidateAPKPath("/tmp/app.APK"); err != nil {
		t.Errorf("uppercase extension rejected: %v", err)
	}
	for _, p := range []string{"", "  ", "/tmp/app.zip", "/tmp/app"} {
		if err := ValidateAPKPath(p); err == nil || !IsUserInput(err) {
			t.Errorf("ValidateAPKPath(%q) = %v, want user input error", p, err)
		}
	}
}
