package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// FindLatest returns the most recently modified file in dir whose name
// ends with one of exts.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %s", dir, strings.Join(exts, ", "))
	}
	return latestFile, nil
}

// FindLatestShow finds the newest show document in dir.
func FindLatestShow(dir string) (string, error) {
	return FindLatest(dir, ".yaml", ".yml")
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DefaultWorkers returns the number of physical cores, falling back to the
// logical count.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// MemoryStatus is a snapshot of host memory.
type MemoryStatus struct {
	Total       uint64
	Available   uint64
	UsedPercent float64
}

func ReadMemory() (MemoryStatus, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStatus{}, err
	}
	return MemoryStatus{Total: vm.Total, Available: vm.Available, UsedPercent: vm.UsedPercent}, nil
}

// FrameBytes is the size of one RGBA frame buffer.
func FrameBytes(width, height int) uint64 {
	return uint64(width) * uint64(height) * 4
}

// CheckMemory reports an error when fewer than need bytes are available.
func CheckMemory(need uint64) error {
	st, err := ReadMemory()
	if err != nil {
		return fmt.Errorf("чтение памяти: %w", err)
	}
	if st.Available < need {
		return fmt.Errorf("доступно %d МБ памяти, требуется %d МБ", st.Available>>20, need>>20)
	}
	return nil
}
