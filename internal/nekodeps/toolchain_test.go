package nekodeps

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func noNinja(string) (string, error)   { return "", errors.New("not found") }
func withNinja(string) (string, error) { return "/usr/bin/ninja", nil }

func TestBaseFlagsPrefixAndSearchPath(t *testing.T) {
	tgt := Target{OS: OSLinux, Arch: "x86_64", Version: "6.8"}
	l := NewLayout("/work", tgt)

	flags, err := BaseFlags(tgt, l, Settings{}, noNinja)
	if err != nil {
		t.Fatalf("BaseFlags: %v", err)
	}
	for _, want := range []string{
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_PREFIX_PATH=" + l.Root,
		"-DCMAKE_INSTALL_PREFIX=" + l.Root,
		"-DCMAKE_C_FLAGS=-fPIC -I" + l.Include,
	} {
		if !slices.Contains(flags, want) {
			t.Errorf("flags %v missing %q", flags, want)
		}
	}
	if slices.Contains(flags, "-G") {
		t.Errorf("no generator expected without ninja: %v", flags)
	}
}

func TestCFlagsPIC(t *testing.T) {
	for _, os := range []string{OSMacOS, OSLinux, OSiOS, OSAndroid} {
		tgt := Target{OS: os, Arch: "arm64"}
		if got := CFlags(tgt, NewLayout("/w", tgt)); !strings.Contains(got, "-fPIC") {
			t.Errorf("%s: CFlags = %q, want -fPIC", os, got)
		}
	}
	win := Target{OS: OSWindows, Arch: "AMD64", Version: "10"}
	l := NewLayout("/w", win)
	if got := CFlags(win, l); got != "-DCMAKE_C_FLAGS=-I"+l.Include {
		t.Errorf("Windows CFlags = %q", got)
	}
}

func TestBaseFlagsGenerator(t *testing.T) {
	tgt := Target{OS: OSLinux, Arch: "x86_64"}
	l := NewLayout("/w", tgt)

	flags, _ := BaseFlags(tgt, l, Settings{}, withNinja)
	if i := slices.Index(flags, "-G"); i < 0 || flags[i+1] != "Ninja" {
		t.Errorf("expected -G Ninja when ninja is on PATH: %v", flags)
	}

	flags, _ = BaseFlags(tgt, l, Settings{Generator: "Unix Makefiles"}, withNinja)
	if i := slices.Index(flags, "-G"); i < 0 || flags[i+1] != "Unix Makefiles" {
		t.Errorf("configured generator not used: %v", flags)
	}
}

func TestBaseFlagsIOS(t *testing.T) {
	tgt := ResolveTarget(OSiOS, "", "", fakeHost{system: "Darwin"})
	flags, err := BaseFlags(tgt, NewLayout("/w", tgt), Settings{}, noNinja)
	if err != nil {
		t.Fatalf("BaseFlags: %v", err)
	}
	for _, want := range []string{
		"-DCMAKE_SYSTEM_NAME=iOS",
		"-DCMAKE_OSX_ARCHITECTURES=arm64",
		"-DCMAKE_OSX_SYSROOT=iphoneos",
		"-DCMAKE_OSX_DEPLOYMENT_TARGET=16.4",
	} {
		if !slices.Contains(flags, want) {
			t.Errorf("iOS flags %v missing %q", flags, want)
		}
	}
}

func TestBaseFlagsAndroid(t *testing.T) {
	tgt := ResolveTarget(OSAndroid, "arm64-v8a", "33", fakeHost{})
	l := NewLayout("/w", tgt)

	if _, err := BaseFlags(tgt, l, Settings{}, noNinja); !errors.Is(err, ErrMissingNDK) {
		t.Fatalf("BaseFlags without NDK: err = %v, want ErrMissingNDK", err)
	}

	ndk := filepath.Join("/opt", "ndk")
	flags, err := BaseFlags(tgt, l, Settings{NDK: ndk}, noNinja)
	if err != nil {
		t.Fatalf("BaseFlags: %v", err)
	}
	for _, want := range []string{
		"-DCMAKE_TOOLCHAIN_FILE=" + filepath.Join(ndk, "build", "cmake", "android.toolchain.cmake"),
		"-DANDROID_ABI=arm64-v8a",
		"-DANDROID_PLATFORM=android-33",
	} {
		if !slices.Contains(flags, want) {
			t.Errorf("Android flags %v missing %q", flags, want)
		}
	}
	// install paths use the toolchain name
	if !strings.HasSuffix(l.Root, filepath.Join("Android", "aarch64")) {
		t.Errorf("layout root %q should end in Android/aarch64", l.Root)
	}
}

func TestToolchainFlagsWithDoesNotMutate(t *testing.T) {
	base := make(ToolchainFlags, 2, 8)
	base[0], base[1] = "-DA=1", "-DB=2"

	first := base.With("-DX=1")
	second := base.With("-DY=2")

	if len(base) != 2 {
		t.Fatalf("base grew to %v", base)
	}
	if !slices.Equal(first, []string{"-DA=1", "-DB=2", "-DX=1"}) {
		t.Errorf("first = %v", first)
	}
	if !slices.Equal(second, []string{"-DA=1", "-DB=2", "-DY=2"}) {
		t.Errorf("second = %v", second)
	}
}
