// Package discovery enumerates video capture devices known to the system.
package discovery

import (
	"sort"
	"strings"

	"github.com/pion/mediadevices"
	// Registers the V4L2 camera driver with the mediadevices driver manager.
	_ "github.com/pion/mediadevices/pkg/driver/camera"
)

// Device is one enumerated video input.
type Device struct {
	ID    string
	Label string
}

// Name returns the most descriptive identifier available.
func (d Device) Name() string {
	if label := strings.TrimSpace(d.Label); label != "" {
		return label
	}
	return d.ID
}

// List returns the video inputs currently registered, sorted by label.
func List() []Device {
	return videoInputs(mediadevices.EnumerateDevices())
}

func videoInputs(infos []mediadevices.MediaDeviceInfo) []Device {
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info.Kind != mediadevices.VideoInput {
			continue
		}
		devices = append(devices, Device{ID: info.DeviceID, Label: info.Label})
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Name() < devices[j].Name()
	})
	return devices
}
