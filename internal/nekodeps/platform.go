package nekodeps

import (
	"path/filepath"
)

// platformSpec holds everything that varies by target OS. Adding a platform
// means adding an entry to platforms.
type platformSpec struct {
	DefaultArch    string
	DefaultVersion string
	PIC            bool // compile with -fPIC
	CrossFlags     func(t Target, s Settings) ([]string, error)
	Skip           []string // unit names not supported on this platform
	Extensions     []extensionStep
}

var platforms = map[string]platformSpec{
	OSWindows: {
		PIC:        false,
		Extensions: []extensionStep{cairoWindows, openALWindows},
	},
	OSMacOS: {
		PIC:        true,
		Extensions: []extensionStep{prebuiltUnavailable},
	},
	OSLinux: {
		PIC:        true,
		Extensions: []extensionStep{prebuiltUnavailable},
	},
	OSiOS: {
		DefaultArch:    "arm64",
		DefaultVersion: "16.4",
		PIC:            true,
		CrossFlags:     iosFlags,
		Skip:           []string{"freetype-2.13.0", "meshoptimizer-0.19"},
		Extensions:     []extensionStep{prebuiltUnavailable},
	},
	OSAndroid: {
		PIC:        true,
		CrossFlags: androidFlags,
		Extensions: []extensionStep{prebuiltUnavailable},
	},
}

// defaultPlatform applies to any OS tag without an entry; unsupported
// combinations are left for the build tools to reject.
var defaultPlatform = platformSpec{
	PIC:        true,
	Extensions: []extensionStep{prebuiltUnavailable},
}

func platformFor(os string) platformSpec {
	if p, ok := platforms[os]; ok {
		return p
	}
	return defaultPlatform
}

// skips reports whether unit name is excluded on this platform.
func (p platformSpec) skips(name string) bool {
	for _, s := range p.Skip {
		if s == name {
			return true
		}
	}
	return false
}

func iosFlags(t Target, _ Settings) ([]string, error) {
	return []string{
		"-DCMAKE_SYSTEM_NAME=iOS",
		"-DCMAKE_OSX_ARCHITECTURES=" + t.Arch,
		"-DCMAKE_OSX_SYSROOT=iphoneos",
		"-DCMAKE_OSX_DEPLOYMENT_TARGET=" + t.Version,
	}, nil
}

func androidFlags(t Target, s Settings) ([]string, error) {
	if s.NDK == "" {
		return nil, ErrMissingNDK
	}
	return []string{
		"-DCMAKE_TOOLCHAIN_FILE=" + filepath.Join(s.NDK, "build", "cmake", "android.toolchain.cmake"),
		"-DANDROID_ABI=" + t.ABIArch(),
		"-DANDROID_PLATFORM=android-" + t.Version,
	}, nil
}
