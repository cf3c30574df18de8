package system

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// Stats is a snapshot of process and host resource usage.
type Stats struct {
	ProcessRSS  uint64  // bytes
	ProcessCPU  float64 // percent
	HostMemUsed float64 // percent
	CPUCores    int
}

// CollectStats samples the current process and host counters.
func CollectStats() (*Stats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("process handle: %w", err)
	}

	stats := &Stats{}

	if mi, err := proc.MemoryInfo(); err == nil {
		stats.ProcessRSS = mi.RSS
	}
	if pct, err := proc.CPUPercent(); err == nil {
		stats.ProcessCPU = pct
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.HostMemUsed = vm.UsedPercent
	}
	if n, err := cpu.Counts(true); err == nil {
		stats.CPUCores = n
	}

	return stats, nil
}

// Report formats the snapshot the way benchmark output is logged.
func (s *Stats) Report(buildVersion string, elapsed time.Duration) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Process RSS: %.1f MB\n"+
			"Process CPU: %.1f%%\n"+
			"Host Memory Used: %.1f%%\n"+
			"CPU Cores: %d\n"+
			"----------------------------\n",
		buildVersion, elapsed.Seconds(),
		float64(s.ProcessRSS)/(1024*1024),
		s.ProcessCPU, s.HostMemUsed, s.CPUCores,
	)
}

// AppendBenchmarkLog appends one line to the benchmark log file.
func AppendBenchmarkLog(path, entry string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать %s: %v\n", path, err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), entry)
}
