package adb

import (
	"reflect"
	"testing"
)

func TestParseDevices(t *testing.T) {
	output := "List of devices attached\n" +
		"ABC123\tdevice usb:1-2 product:raven model:Pixel_6_Pro device:raven\n" +
		"192.168.1.50:5555\tdevice product:raven model:Pixel_6_Pro device:raven\n" +
		"emulator-5554\toffline\n" +
		"XYZ789\tunauthorized\n\n"

	entries := ParseDevices(output)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}

	if entries[0].ID != "ABC123" || entries[0].State != "device" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[0].Model != "Pixel 6 Pro" {
		t.Errorf("expected model underscores replaced, got %q", entries[0].Model)
	}
	if entries[0].USB != "1-2" || entries[0].Wireless {
		t.Errorf("entry 0 should be USB: %+v", entries[0])
	}
	if !entries[1].Wireless {
		t.Errorf("ip:port entry should be wireless: %+v", entries[1])
	}
	if entries[2].State != "offline" || entries[3].State != "unauthorized" {
		t.Errorf("states not preserved: %+v %+v", entries[2], entries[3])
	}
}

func TestParseDevicesPreservesOrder(t *testing.T) {
	output := "List of devices attached\nBBB\tdevice\nAAA\tdevice\nCCC\tdevice\n"
	entries := ParseDevices(output)
	got := []string{}
	for _, e := range entries {
		got = append(got, e.ID)
	}
	want := []string{"BBB", "AAA", "CCC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order not preserved: got %v, want %v", got, want)
	}
}

func TestParseDevicesEmptyAndChatter(t *testing.T) {
	if got := ParseDevices("List of devices attached\n\n"); len(got) != 0 {
		t.Errorf("expected no entries, got %+v", got)
	}
	output := "* daemon not running; starting now at tcp:5037\n" +
		"* daemon started successfully\n" +
		"List of devices attached\nABC123\tdevice\n"
	if got := ParseDevices(output); len(got) != 1 || got[0].ID != "ABC123" {
		t.Errorf("daemon chatter not skipped: %+v", got)
	}
}

func TestParseDevicesMDNS(t *testing.T) {
	output := "List of devices attached\nadb-R5CT10XXXX-abcDEF._adb-tls-connect._tcp\tdevice\n"
	entries := ParseDevices(output)
	if len(entries) != 1 || !entries[0].MDNS || !entries[0].Wireless {
		t.Errorf("mdns entry not recognized: %+v", entries)
	}
}

func TestParseProps(t *testing.T) {
	output := "[ro.product.model]: [Pixel 7]\n" +
		"[ro.build.version.release]: [14]\n" +
		"[ro.empty]: []\n" +
		"garbage line\n"
	props := ParseProps(output)
	if props["ro.product.model"] != "Pixel 7" {
		t.Errorf("model = %q", props["ro.product.model"])
	}
	if props["ro.build.version.release"] != "14" {
		t.Errorf("release = %q", props["ro.build.version.release"])
	}
	if v, ok := props["ro.empty"]; !ok || v != "" {
		t.Errorf("empty value not preserved: %q ok=%v", v, ok)
	}
	if len(props) != 3 {
		t.Errorf("expected 3 props, got %d", len(props))
	}
}

func TestParsePackages(t *testing.T) {
	output := "package:com.example.app\npackage:com.android.settings\n\nWarning: something\n"
	pkgs := ParsePackages(output)
	want := []string{"com.example.app", "com.android.settings"}
	if !reflect.DeepEqual(pkgs, want) {
		t.Errorf("got %v, want %v", pkgs, want)
	}
}

func TestParsePackagesWithPaths(t *testing.T) {
	output := "package:/data/app/~~xyz==/com.example.app-1/base.apk=com.example.app\n"
	pkgs := ParsePackages(output)
	if len(pkgs) != 1 || pkgs[0] != "com.example.app" {
		t.Errorf("apk path prefix not stripped: %v", pkgs)
	}
}

func TestParseBatteryLevel(t *testing.T) {
	output := "Current Battery Service state:\n  AC powered: false\n  level: 87\n  scale: 100\n"
	if got := ParseBatteryLevel(output); got != 87 {
		t.Errorf("level = %d, want 87", got)
	}
	if got := ParseBatteryLevel("no such section"); got != -1 {
		t.Errorf("missing level should be -1, got %d", got)
	}
}

func TestClassifyConnect(t *testing.T) {
	cases := []struct {
		output string
		want   ConnectOutcome
	}{
		{"connected to 192.168.1.50:5555", ConnectOK},
		{"already connected to 192.168.1.50:5555", ConnectAlready},
		{"failed to connect to '192.168.1.50:5555': Connection refused", ConnectRefused},
		{"unable to connect to 192.168.1.50:5555", ConnectUnreachable},
		{"something else entirely", ConnectUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyConnect(tc.output); got != tc.want {
			t.Errorf("ClassifyConnect(%q) = %v, want %v", tc.output, got, tc.want)
		}
	}
}
