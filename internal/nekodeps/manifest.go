package nekodeps

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

// ManifestEntry is one line of the install manifest. Checksum is empty for
// directories and "000000" for symlinks.
type ManifestEntry struct {
	Path     string
	Checksum string
}

// ManifestPath is where WriteManifest records the layout's contents.
func ManifestPath(l OutputLayout) string {
	return filepath.Join(l.Meta, "manifest")
}

// WriteManifest lists everything installed under the layout root with a
// BLAKE3 digest per regular file. The Meta directory is not listed.
func WriteManifest(l OutputLayout) error {
	entries, err := scanLayout(l)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.Meta, 0o755); err != nil {
		return err
	}

	f, err := os.Create(ManifestPath(l))
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if e.Checksum == "" {
			fmt.Fprintln(w, e.Path)
		} else {
			fmt.Fprintf(w, "%s  %s\n", e.Path, e.Checksum)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	debugf("Manifest written to %s (%d entries)\n", ManifestPath(l), len(entries))
	return f.Close()
}

func scanLayout(l OutputLayout) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	err := filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == l.Root {
			return nil
		}
		if path == l.Meta {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(l.Root, path)
		if err != nil {
			return err
		}
		entry := "/" + filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			entries = append(entries, ManifestEntry{Path: entry + "/"})
		case d.Type()&fs.ModeSymlink != 0:
			entries = append(entries, ManifestEntry{Path: entry, Checksum: "000000"})
		default:
			sum, err := fileChecksum(path)
			if err != nil {
				return err
			}
			entries = append(entries, ManifestEntry{Path: entry, Checksum: sum})
		}
		return nil
	})
	return entries, err
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// parseManifest reads a manifest written by WriteManifest.
func parseManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []ManifestEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		e := ManifestEntry{Path: fields[0]}
		if len(fields) > 1 {
			e.Checksum = fields[len(fields)-1]
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
