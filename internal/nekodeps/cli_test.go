package nekodeps

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliDir runs the test from an empty work directory with no config.
func cliDir(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { Debug, Verbose = false, false })
	t.Setenv("NEKODEPS_CONFIG", "")
	t.Setenv("NDK", "")
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestUnitsCommand(t *testing.T) {
	cliDir(t)

	var out bytes.Buffer
	if err := handleUnitsCommand([]string{"Windows", "AMD64", "10"}, &out); err != nil {
		t.Fatalf("units: %v", err)
	}
	for _, want := range []string{"Windows AMD64 10", "zlib-ng-2.0.7", "checked in", "cairo-windows-1.17.2", "openal-soft-1.23.1-bin"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("units output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := handleUnitsCommand([]string{"iOS"}, &out); err != nil {
		t.Fatalf("units iOS: %v", err)
	}
	if strings.Contains(out.String(), "freetype") || !strings.Contains(out.String(), "iOS arm64 16.4") {
		t.Errorf("iOS units output:\n%s", out.String())
	}
}

func TestFlagsCommand(t *testing.T) {
	cliDir(t)
	t.Setenv("NEKODEPS_GENERATOR", "Unix Makefiles")

	var out bytes.Buffer
	if err := handleFlagsCommand([]string{"Windows", "AMD64", "10"}, &out); err != nil {
		t.Fatalf("flags: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "-DCMAKE_BUILD_TYPE=Release" {
		t.Errorf("first flag = %q", lines[0])
	}
	if strings.Contains(out.String(), "-fPIC") || !strings.Contains(out.String(), "Unix Makefiles") {
		t.Errorf("Windows flags:\n%s", out.String())
	}

	if err := handleFlagsCommand([]string{"Android", "arm64-v8a", "33"}, &out); !errors.Is(err, ErrMissingNDK) {
		t.Errorf("Android without NDK: err = %v", err)
	}
}

func TestTargetFromArgsTooMany(t *testing.T) {
	if _, err := targetFromArgs([]string{"Linux", "x86_64", "6.8", "extra"}); err == nil {
		t.Error("four positional arguments accepted")
	}
}

func TestRunExitCodes(t *testing.T) {
	cliDir(t)
	if code := run(context.Background(), []string{"version"}); code != 0 {
		t.Errorf("version exit code = %d", code)
	}
	if code := run(context.Background(), []string{"log"}); code != 1 {
		t.Errorf("log without unit exit code = %d", code)
	}
	if code := run(context.Background(), []string{"files", "Linux", "x86_64", "6.8"}); code != 1 {
		t.Errorf("files without a manifest exit code = %d", code)
	}
}

func TestInspectCommandsHonourWorkdir(t *testing.T) {
	cliDir(t)
	work := t.TempDir()
	writeFile(t, filepath.Join(work, "Deps", "units.yaml"), "units:\n  - name: libffi-3.4.4\n    build: autotools\n    url: https://example.org/libffi-3.4.4.tar.gz\n")

	var out bytes.Buffer
	if err := handleUnitsCommand([]string{"-workdir", work, "Linux", "x86_64", "6.8"}, &out); err != nil {
		t.Fatalf("units: %v", err)
	}
	if !strings.Contains(out.String(), "libffi-3.4.4") {
		t.Errorf("overlay in -workdir not read:\n%s", out.String())
	}

	out.Reset()
	if err := handleFlagsCommand([]string{"-workdir", work, "Linux", "x86_64", "6.8"}, &out); err != nil {
		t.Fatalf("flags: %v", err)
	}
	if want := "-DCMAKE_INSTALL_PREFIX=" + filepath.Join(work, "Deps", "Linux", "x86_64"); !strings.Contains(out.String(), want) {
		t.Errorf("flags output missing %q:\n%s", want, out.String())
	}

	l := NewLayout(work, Target{OS: OSLinux, Arch: "x86_64", Version: "6.8"})
	writeFile(t, filepath.Join(l.Lib, "libz.a"), "z")
	if err := WriteManifest(l); err != nil {
		t.Fatal(err)
	}
	if code := run(context.Background(), []string{"files", "-workdir", work, "Linux", "x86_64", "6.8"}); code != 0 {
		t.Errorf("files -workdir exit code = %d", code)
	}
	if code := run(context.Background(), []string{"log", "-workdir", work, "zlib-ng-2.0.7", "Linux", "x86_64", "6.8"}); code != 1 {
		t.Errorf("log for a unit without a log exit code = %d", code)
	}
}
