package preflight

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"logicmate/internal/config"
	"logicmate/internal/services/dnn"
)

// HostReport is a snapshot of the resources inference and training draw on.
type HostReport struct {
	CPUCount        int
	TotalMemory     uint64
	AvailableMemory uint64
	Device          dnn.Device
}

// CollectHostReport gathers CPU, memory, and device information. Probe
// failures leave the corresponding field zero rather than failing the
// report.
func CollectHostReport(cfg *config.Config) HostReport {
	report := HostReport{Device: dnn.PickDevice(cfg.Detection.Device)}
	if count, err := cpu.Counts(true); err == nil {
		report.CPUCount = count
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.TotalMemory = vm.Total
		report.AvailableMemory = vm.Available
	}
	return report
}

// MemoryDetail renders the memory figures for status output.
func (r HostReport) MemoryDetail() string {
	const gib = 1 << 30
	return fmt.Sprintf("%.1f GiB available of %.1f GiB",
		float64(r.AvailableMemory)/gib, float64(r.TotalMemory)/gib)
}
