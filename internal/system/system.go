// Package system sizes work to the host and finds external tools and files.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Resources is a snapshot of the host capacity available for rendering.
type Resources struct {
	CPUs      int
	Available uint64 // Bytes of memory available without swapping
}

// Probe reads the logical CPU count and available memory.
func Probe(ctx context.Context) (Resources, error) {
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return Resources{}, fmt.Errorf("count cpus: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Resources{}, fmt.Errorf("read memory: %w", err)
	}
	return Resources{CPUs: cpus, Available: vm.Available}, nil
}

// Workers returns how many frames of frameBytes each can be rendered at
// once: one per CPU, but never more than a quarter of available memory
// allows, and at least one.
func (r Resources) Workers(frameBytes int64) int {
	n := max(1, r.CPUs)
	if frameBytes > 0 && r.Available > 0 {
		byMem := int(r.Available / 4 / uint64(frameBytes))
		n = min(n, byMem)
	}
	return max(1, n)
}

// GetBestH264Encoder returns the fastest H.264 encoder ffmpeg offers on
// this machine, falling back to libx264.
func GetBestH264Encoder(ctx context.Context) string {
	// Priority:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// FindLatest returns the most recently modified file in dir with one of
// the given extensions.
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
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}

	return latestFile, nil
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
