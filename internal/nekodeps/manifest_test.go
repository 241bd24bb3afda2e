package nekodeps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"lukechampine.com/blake3"
)

func TestWriteManifest(t *testing.T) {
	tgt := Target{OS: OSLinux, Arch: "x86_64"}
	l := NewLayout(t.TempDir(), tgt)
	writeFile(t, filepath.Join(l.Lib, "libz.a"), "zlib archive")
	writeFile(t, filepath.Join(l.Include, "zlib.h"), "/* zlib */")
	writeFile(t, filepath.Join(l.LogDir(), "zlib.log.xz"), "log")
	if runtime.GOOS != "windows" {
		if err := os.Symlink("libz.a", filepath.Join(l.Lib, "libz.so")); err != nil {
			t.Fatal(err)
		}
	}

	if err := WriteManifest(l); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	entries, err := parseManifest(ManifestPath(l))
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}

	got := map[string]string{}
	for _, e := range entries {
		got[e.Path] = e.Checksum
	}

	want := fmt.Sprintf("%x", blake3.Sum256([]byte("zlib archive")))
	if got["/lib/libz.a"] != want {
		t.Errorf("libz.a checksum = %q, want %q", got["/lib/libz.a"], want)
	}
	if sum, ok := got["/lib/"]; !ok || sum != "" {
		t.Errorf("directory entry /lib/ = %q, %v", sum, ok)
	}
	if runtime.GOOS != "windows" && got["/lib/libz.so"] != "000000" {
		t.Errorf("symlink entry = %q", got["/lib/libz.so"])
	}
	for path := range got {
		if path == "/share/nekodeps/" || filepath.Base(path) == "zlib.log.xz" {
			t.Errorf("metadata listed in manifest: %s", path)
		}
	}
}
