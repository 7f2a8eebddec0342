package manager

import (
	"os/exec"

	"qexpand/internal/common/fsutil"
)

// DetectAccelerator reports whether a CUDA-capable device looks present.
func DetectAccelerator() bool {
	if fsutil.PathExists("/proc/driver/nvidia/version") {
		return true
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	return false
}

// detectDevice applies the configured preference over the probe.
func (m *Manager) detectDevice() Device {
	switch m.device {
	case PreferCPU:
		return DeviceCPU
	case PreferGPU:
		return DeviceGPU
	}
	if m.probe() {
		return DeviceGPU
	}
	return DeviceCPU
}
