//go:build windows

package nekodeps

import (
	"os"
	"strconv"

	"golang.org/x/sys/windows"
)

type windowsHost struct {
	major uint32
}

// DetectHost inspects the running host. Machine follows PROCESSOR_ARCHITECTURE
// (AMD64, x86, ARM64) and Release is the major version, e.g. "10".
func DetectHost() (HostInfo, error) {
	v := windows.RtlGetVersion()
	return &windowsHost{major: v.MajorVersion}, nil
}

func (h *windowsHost) System() string { return "Windows" }

func (h *windowsHost) Machine() string {
	if arch := os.Getenv("PROCESSOR_ARCHITEW6432"); arch != "" {
		return arch
	}
	return os.Getenv("PROCESSOR_ARCHITECTURE")
}

func (h *windowsHost) Release() string { return strconv.FormatUint(uint64(h.major), 10) }
