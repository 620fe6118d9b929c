// Package sysinfo describes the machine a training run executes on.
package sysinfo

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const bytesPerGB = 1 << 30

// GPUQuery lists installed GPUs. It returns nil when none can be found.
type GPUQuery func(ctx context.Context) ([]map[string]any, error)

// Collector gathers the "System Information" section of a record.
type Collector struct {
	GPUs GPUQuery
}

// New returns a Collector that queries GPUs with nvidia-smi.
func New() *Collector {
	return &Collector{GPUs: NvidiaSMI}
}

// Collect returns CPU, memory, platform and GPU details. Sections that
// cannot be read are logged and left out.
func (c *Collector) Collect(ctx context.Context) map[string]any {
	info := map[string]any{}

	if section, err := cpuSection(ctx); err != nil {
		log.Printf("[WARN] Failed to read CPU information: %v", err)
	} else {
		info["CPU"] = section
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Printf("[WARN] Failed to read memory information: %v", err)
	} else {
		info["Memory"] = map[string]any{
			"total_gb":     round2(float64(vm.Total) / bytesPerGB),
			"available_gb": round2(float64(vm.Available) / bytesPerGB),
			"used_percent": round2(vm.UsedPercent),
		}
	}

	if h, err := host.InfoWithContext(ctx); err != nil {
		log.Printf("[WARN] Failed to read host information: %v", err)
	} else {
		info["Platform"] = map[string]any{
			"hostname":         h.Hostname,
			"os":               h.OS,
			"platform":         h.Platform,
			"platform_version": h.PlatformVersion,
			"kernel_version":   h.KernelVersion,
			"architecture":     h.KernelArch,
			"go_version":       runtime.Version(),
		}
	}

	if c.GPUs != nil {
		gpus, err := c.GPUs(ctx)
		if err != nil {
			log.Printf("[DEBUG] No GPU information: %v", err)
		}
		if len(gpus) > 0 {
			info["GPU"] = gpus
		}
	}

	return info
}

func cpuSection(ctx context.Context) (map[string]any, error) {
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	section := map[string]any{
		"physical_cores": physical,
		"logical_cores":  logical,
	}
	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		section["model"] = stats[0].ModelName
		section["mhz"] = stats[0].Mhz
	}
	return section, nil
}

// NvidiaSMI queries GPUs through the nvidia-smi binary when it is installed.
func NvidiaSMI(ctx context.Context) ([]map[string]any, error) {
	bin, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, bin,
		"--query-gpu=name,memory.total,driver_version",
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi failed: %w", err)
	}
	return ParseNvidiaSMI(string(out))
}

// ParseNvidiaSMI parses nvidia-smi CSV output (name, memory MiB, driver).
func ParseNvidiaSMI(out string) ([]map[string]any, error) {
	r := csv.NewReader(strings.NewReader(out))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse nvidia-smi output: %w", err)
	}

	var gpus []map[string]any
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		gpus = append(gpus, map[string]any{
			"name":           row[0],
			"memory_mib":     row[1],
			"driver_version": row[2],
		})
	}
	return gpus, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
