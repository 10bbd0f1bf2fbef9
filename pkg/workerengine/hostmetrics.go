package workerengine

import (
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/cpu"
)

// detectRAMMB and detectAVX2 fill in the host facts a worker reports on job
// acquisition: available RAM, core count, and AVX2 support. Best effort —
// a detection failure degrades to a zero value rather than aborting
// acquisition, since the orchestrator only uses these as a scheduling
// hint (required_capability_tag matching), never as a hard gate.
//
// Grounded on github.com/prometheus/procfs (already pulled in transitively
// by the client_golang metrics stack this module carries) for /proc/meminfo,
// and golang.org/x/sys/cpu (transitively via golang.org/x/crypto) for AVX2
// feature detection — both are idiomatic replacements for hand-parsing
// /proc or issuing raw CPUID instructions.
func detectRAMMB() int {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0
	}
	info, err := fs.Meminfo()
	if err != nil || info.MemTotal == nil {
		return 0
	}
	return int(*info.MemTotal / 1024)
}

func detectAVX2() bool {
	return cpu.X86.HasAVX2
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}

// loadPercent samples 1-minute load average as a percentage of the
// worker's configured core count, clamped to [0, 100]. The hot loop never
// suspends on its own account, so this is reported alongside telemetry
// rather than consulted by it.
func loadPercent(cores int) float64 {
	if cores <= 0 {
		cores = 1
	}
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0
	}
	stat, err := fs.LoadAvg()
	if err != nil {
		return 0
	}
	pct := (stat.Load1 / float64(cores)) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// thermalCelsius reads the first available Linux thermal zone. Returns 0,
// the "no reading" sentinel, on any non-Linux host or missing sysfs node —
// thermal is informational only (types.WorkerTelemetry.IsHealthy treats 0
// as healthy).
func thermalCelsius() float64 {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milliC, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return float64(milliC) / 1000
}
