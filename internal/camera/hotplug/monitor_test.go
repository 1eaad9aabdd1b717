package hotplug

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestNilMonitorIsSafe(t *testing.T) {
	var m *Monitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor should return nil, got %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("expected nil monitor not running")
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := New(nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("expected unstarted monitor not running")
	}
}

func TestBuildMatcher(t *testing.T) {
	matcher := buildMatcher()

	for _, action := range []netlink.KObjAction{netlink.ADD, netlink.REMOVE} {
		event := netlink.UEvent{Action: action, Env: map[string]string{"SUBSYSTEM": "video4linux"}}
		if !matcher.Evaluate(event) {
			t.Errorf("expected matcher to accept %s", action)
		}
	}

	change := netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "video4linux"}}
	if matcher.Evaluate(change) {
		t.Error("expected matcher to reject change events")
	}

	block := netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block"}}
	if matcher.Evaluate(block) {
		t.Error("expected matcher to reject other subsystems")
	}
}

func TestHandleEvent(t *testing.T) {
	var got []Event
	m := New(nil, func(e Event) { got = append(got, e) })

	m.handleEvent(netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "video2"}})
	m.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"DEVPATH": "/devices/pci0000:00/usb1/video4linux/video0"}})
	m.handleEvent(netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %+v", got)
	}
	if got[0].Device != "/dev/video2" || !got[0].Added() {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].Device != "/dev/video0" || got[1].Added() {
		t.Fatalf("unexpected second event %+v", got[1])
	}
}
