//go:build js && wasm
// +build js,wasm

package detector

// Device stub for WASM builds (no adapter probing available).
type Device struct {
	Available   bool   `json:"available"`
	Name        string `json:"name,omitempty"`
	Backend     string `json:"backend,omitempty"`
	AdapterType string `json:"adapter_type,omitempty"`
}

// Probe reports no adapter under WASM.
func Probe() Device { return Device{} }

// Tag renders the device line used in run banners.
func (d Device) Tag() string { return "cpu" }

// DeviceTag probes and returns the tag in one call.
func DeviceTag() string { return "cpu" }
