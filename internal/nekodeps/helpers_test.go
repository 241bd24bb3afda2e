package nekodeps

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
)

// fakeHost is a HostInfo with fixed answers.
type fakeHost struct {
	system, machine, release string
}

func (h fakeHost) System() string  { return h.system }
func (h fakeHost) Machine() string { return h.machine }
func (h fakeHost) Release() string { return h.release }

// recordingRunner records every command and lets tests hook individual
// invocations to simulate what the real tool would have done.
type recordingRunner struct {
	mu   sync.Mutex
	cmds []Command
	hook func(c Command) error
}

func (r *recordingRunner) Run(_ context.Context, c Command) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
	if r.hook != nil {
		return r.hook(c)
	}
	return nil
}

func (r *recordingRunner) commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.cmds...)
}

// fakeTransport serves archives from memory keyed by URL.
type fakeTransport struct {
	archives  map[string][]byte
	fetched   []string
	failTimes int
	available bool
}

func (t *fakeTransport) Name() string    { return "fake" }
func (t *fakeTransport) Available() bool { return t.available }

func (t *fakeTransport) Fetch(_ context.Context, dest, url string) error {
	t.fetched = append(t.fetched, url)
	if t.failTimes > 0 {
		t.failTimes--
		os.WriteFile(dest, []byte("partial"), 0o644)
		return errFakeFetch
	}
	data, ok := t.archives[url]
	if !ok {
		return errFakeFetch
	}
	return os.WriteFile(dest, data, 0o644)
}

var errFakeFetch = &CommandError{Name: "fake", ExitCode: 22}

// tarGz builds a .tar.gz archive from path -> content; paths ending in "/"
// are directories.
func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range sortedKeys(files) {
		content := files[name]
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if strings.HasSuffix(name, "/") {
			hdr = &tar.Header{Name: name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(content)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// zipArchive builds a .zip archive from path -> content.
func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
