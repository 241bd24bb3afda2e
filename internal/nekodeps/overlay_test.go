package nekodeps

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const overlayYAML = `units:
  - name: libsndfile-1.2.2
    url: https://github.com/libsndfile/libsndfile/releases/download/1.2.2/libsndfile-1.2.2.tar.xz
    args: ["-DBUILD_SHARED_LIBS=OFF", "-DOGG_INCLUDE_DIR={include}", "-DOGG_LIBRARY={lib}/libogg.a"]
    skip: [ios]
  - name: libffi-3.4.4
    build: autotools
    url: https://github.com/libffi/libffi/releases/download/v3.4.4/libffi-3.4.4.tar.gz
`

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	writeFile(t, path, overlayYAML)

	tgt := Target{OS: OSLinux, Arch: "x86_64"}
	l := NewLayout("/work", tgt)
	units, err := LoadOverlay(path, tgt, l)
	if err != nil {
		t.Fatalf("LoadOverlay: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}

	snd := units[0]
	if snd.System != BuildCMake || snd.Archive() != "libsndfile-1.2.2.tar.xz" {
		t.Errorf("libsndfile = %+v", snd)
	}
	if !slices.Contains(snd.Args, "-DOGG_INCLUDE_DIR="+l.Include) {
		t.Errorf("{include} not expanded: %v", snd.Args)
	}
	if !slices.Contains(snd.Args, "-DOGG_LIBRARY="+l.Lib+"/libogg.a") {
		t.Errorf("{lib} not expanded: %v", snd.Args)
	}
	if units[1].System != BuildAutotools {
		t.Errorf("libffi build system = %q", units[1].System)
	}
}

func TestLoadOverlaySkip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	writeFile(t, path, overlayYAML)

	tgt := Target{OS: OSiOS, Arch: "arm64"}
	units, err := LoadOverlay(path, tgt, NewLayout("/work", tgt))
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || units[0].Name != "libffi-3.4.4" {
		t.Errorf("iOS units = %+v, want only libffi", units)
	}
}

func TestLoadOverlayMissingFile(t *testing.T) {
	units, err := LoadOverlay(filepath.Join(t.TempDir(), "none.yaml"), Target{}, OutputLayout{})
	if err != nil || units != nil {
		t.Errorf("missing file: units=%v err=%v", units, err)
	}
}

func TestLoadOverlayInvalid(t *testing.T) {
	tests := map[string]string{
		"no name":      "units:\n  - url: https://example.org/x.tar.gz\n",
		"bad system":   "units:\n  - name: x\n    build: scons\n",
		"invalid yaml": "units: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "units.yaml")
			writeFile(t, path, content)
			if _, err := LoadOverlay(path, Target{OS: OSLinux}, OutputLayout{}); err == nil {
				t.Error("expected an error")
			} else if !strings.Contains(err.Error(), path) && name != "invalid yaml" {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}
