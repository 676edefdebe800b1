package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/output"
	"github.com/blackwell-systems/sysup/internal/sources"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system and sysup status",
	Long: `Print a summary of the system (distribution, kernel, hardware) and
of sysup's own state: installed package count, tracked repositories and
the last recorded run.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	fmt.Println(output.Cyan("System:"))
	fmt.Printf("  OS:        %s\n", osPrettyName())
	fmt.Printf("  Kernel:    %s\n", kernelRelease())
	fmt.Printf("  Arch:      %s\n", runtime.GOARCH)
	if hostname, err := os.Hostname(); err == nil {
		fmt.Printf("  Hostname:  %s\n", hostname)
	}
	if cpu := cpuModel(); cpu != "" {
		fmt.Printf("  CPU:       %s\n", cpu)
	}
	if total, avail, ok := memInfo(); ok {
		fmt.Printf("  Memory:    %.1f GiB total, %.1f GiB available\n",
			float64(total)/(1<<30), float64(avail)/(1<<30))
	}
	if total, free, ok := diskUsage("/"); ok {
		fmt.Printf("  Disk (/):  %.1f GiB total, %.1f GiB free\n",
			float64(total)/(1<<30), float64(free)/(1<<30))
	}

	fmt.Println(output.Cyan("sysup:"))
	if pkgs, err := sources.ListInstalled(context.Background()); err == nil {
		fmt.Printf("  Packages:  %d installed\n", len(pkgs))
	}
	if repos, err := repoRegistry().List(); err == nil {
		fmt.Printf("  Repos:     %d tracked\n", len(repos))
	}
	if st, err := openStore(); err == nil {
		defer st.Close()
		if agg, err := st.Aggregate(); err == nil && agg.TotalRuns > 0 {
			fmt.Printf("  Runs:      %d recorded, last %s\n",
				agg.TotalRuns, agg.LastRun.Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("  Runs:      none recorded\n")
		}
	}
	return nil
}

// osPrettyName reads PRETTY_NAME from /etc/os-release.
func osPrettyName() string {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return "unknown"
}

// kernelRelease returns the running kernel version.
func kernelRelease() string {
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(data))
}

// cpuModel reads the first "model name" line from /proc/cpuinfo.
func cpuModel() string {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "model name"); ok {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), ":"))
		}
	}
	return ""
}

// memInfo reads MemTotal and MemAvailable from /proc/meminfo, in bytes.
func memInfo() (total, avail int64, ok bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		var kb int64
		if _, err := fmt.Sscanf(fields[1], "%d", &kb); err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = kb * 1024
		case "MemAvailable:":
			avail = kb * 1024
		}
	}
	return total, avail, total > 0
}

// diskUsage returns total and free bytes for the filesystem at path.
func diskUsage(path string) (total, free uint64, ok bool) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		return 0, 0, false
	}
	return fs.Blocks * uint64(fs.Bsize), fs.Bavail * uint64(fs.Bsize), true
}
