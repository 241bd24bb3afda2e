package nekodeps

import "fmt"

// Platform tags accepted as the target OS.
const (
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSiOS     = "iOS"
	OSAndroid = "Android"
)

// Target is the (os, arch, version) triple a run builds for. Arch holds the
// toolchain-style name; see ABIArch for the store-facing one.
type Target struct {
	OS      string
	Arch    string
	Version string
}

func (t Target) String() string {
	return fmt.Sprintf("%s %s %s", t.OS, t.Arch, t.Version)
}

// ABIArch returns the store-facing ABI name of t.Arch, which is what the
// platform's toolchain file expects.
func (t Target) ABIArch() string {
	for _, a := range archAliases[t.OS] {
		if a.Toolchain == t.Arch {
			return a.ABI
		}
	}
	return t.Arch
}

// archAlias pairs an ABI name with the toolchain name used everywhere else.
type archAlias struct {
	ABI       string
	Toolchain string
}

// archAliases lists, per OS, the arch names that differ between the
// toolchain file and the rest of the build (output paths included).
var archAliases = map[string][]archAlias{
	OSAndroid: {{ABI: "arm64-v8a", Toolchain: "aarch64"}},
}

// toolchainArch maps an ABI name to its toolchain name for os.
func toolchainArch(os, arch string) string {
	for _, a := range archAliases[os] {
		if a.ABI == arch {
			return a.Toolchain
		}
	}
	return arch
}

// HostInfo describes the machine the orchestrator runs on.
type HostInfo interface {
	System() string  // kernel name, e.g. Linux, Darwin, Windows
	Machine() string // hardware name, e.g. x86_64, AMD64, arm64
	Release() string // OS release string
}

// hostSystemNames maps kernel names to platform tags.
var hostSystemNames = map[string]string{
	"Darwin": OSMacOS,
}

// ResolveTarget fills in absent (empty) inputs from the platform defaults
// or the host, then applies the platform's arch aliases. It does not
// validate the combination.
func ResolveTarget(targetOS, targetArch, targetVersion string, host HostInfo) Target {
	if targetOS == "" {
		targetOS = host.System()
		if tag, ok := hostSystemNames[targetOS]; ok {
			targetOS = tag
		}
	}

	p := platformFor(targetOS)

	if targetArch == "" {
		targetArch = p.DefaultArch
		if targetArch == "" {
			targetArch = host.Machine()
		}
	}

	if targetVersion == "" {
		targetVersion = p.DefaultVersion
		if targetVersion == "" {
			targetVersion = host.Release()
		}
	}

	return Target{
		OS:      targetOS,
		Arch:    toolchainArch(targetOS, targetArch),
		Version: targetVersion,
	}
}
