package shell

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"
)

// CoreCounter reports the number of physical cores.
type CoreCounter func() int

// PhysicalCores counts distinct (physical id, core id) pairs in
// /proc/cpuinfo and falls back to runtime.NumCPU when that is unavailable.
func PhysicalCores() int {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return runtime.NumCPU()
	}
	defer f.Close()

	if n := countCores(f); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func countCores(r io.Reader) int {
	seen := make(map[[2]string]struct{})
	var physical, core string

	flush := func() {
		if core != "" {
			seen[[2]string{physical, core}] = struct{}{}
		}
		physical, core = "", ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "physical id":
			physical = strings.TrimSpace(value)
		case "core id":
			core = strings.TrimSpace(value)
		}
	}
	flush()

	return len(seen)
}
