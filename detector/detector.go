//go:build !(js && wasm)

// Package detector probes the WebGPU adapter to decide which compute
// device tag a run reports and seeds for.
package detector

import (
	"fmt"
	"strings"

	"github.com/openfluke/webgpu/wgpu"
)

// Device is a portable summary of the probed adapter.
type Device struct {
	Available   bool   `json:"available"`
	Name        string `json:"name,omitempty"`
	Backend     string `json:"backend,omitempty"`
	AdapterType string `json:"adapter_type,omitempty"`
}

// Probe requests the default high-performance adapter. A missing adapter
// is not an error: the run falls back to the CPU tag.
func Probe() Device {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return Device{}
	}
	defer inst.Release()

	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || adapter == nil {
		return Device{}
	}
	defer adapter.Release()

	info := adapter.GetInfo()
	return Device{
		Available:   true,
		Name:        strings.TrimSpace(info.Name),
		Backend:     info.BackendType.String(),
		AdapterType: info.AdapterType.String(),
	}
}

// Tag renders the device line used in run banners.
func (d Device) Tag() string {
	if !d.Available {
		return "cpu"
	}
	return fmt.Sprintf("gpu (%s)", d.Name)
}

// DeviceTag probes and returns the tag in one call.
func DeviceTag() string {
	return Probe().Tag()
}
