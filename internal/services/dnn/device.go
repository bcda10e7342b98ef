package dnn

import "os"

// Device identifies the inference backend target.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// nvidiaProcPath is overridable in tests.
var nvidiaProcPath = "/proc/driver/nvidia/version"

// PickDevice resolves a configured device string to a concrete Device.
// Explicit "cpu" or "cuda" are honored as-is; anything else (including
// "auto") probes for an NVIDIA driver and falls back to CPU. Selection
// happens once at startup and is not revisited per call.
func PickDevice(configured string) Device {
	switch configured {
	case "cpu":
		return DeviceCPU
	case "cuda":
		return DeviceCUDA
	}
	if _, err := os.Stat(nvidiaProcPath); err == nil {
		return DeviceCUDA
	}
	return DeviceCPU
}
