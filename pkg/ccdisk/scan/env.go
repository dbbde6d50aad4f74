package scan

import (
	"os"
	"runtime"
	"strings"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// procVersion is read to recognise WSL kernels.
var procVersion = "/proc/version"

// DetectEnv describes the running system and the layout being scanned.
func DetectEnv(layout *paths.Layout) types.EnvInfo {
	return types.EnvInfo{
		OS:        osName(runtime.GOOS),
		OSVersion: osVersion(),
		IsWSL:     isWSL(),
		ConfigDir: layout.ClaudeDir,
		HomeDir:   layout.Home,
	}
}

func osName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	default:
		return goos
	}
}

// isWSL reports whether the process runs under Windows Subsystem for Linux.
func isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	data, err := os.ReadFile(procVersion)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}
