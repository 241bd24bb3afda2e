package nekodeps

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Extract unpacks a tar (optionally gz/xz/zst/bz2 compressed) or zip archive
// into destDir, keeping the archive's own top-level directory, and returns
// that directory's name.
func Extract(archivePath, destDir string) (string, error) {
	dest, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return "", err
	}

	if strings.HasSuffix(archivePath, ".zip") {
		return extractZip(archivePath, dest, realDest)
	}
	return extractTar(archivePath, dest, realDest)
}

// topLevel returns the first path component of an archive entry name.
func topLevel(name string) string {
	cleaned := strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "./")
	first, _, _ := strings.Cut(cleaned, "/")
	if first == "." || first == "/" {
		return ""
	}
	return first
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// safeJoin joins an archive entry onto dest, refusing entries that escape it.
func safeJoin(dest, name string) (string, error) {
	p := filepath.Join(dest, name)
	if !within(dest, p) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return p, nil
}

// checkParents refuses targetPath when a symlink among its existing parent
// directories leads outside realDest, the symlink-free form of dest.
func checkParents(realDest, dest, targetPath string) error {
	if targetPath == dest {
		return nil
	}
	dir := filepath.Dir(targetPath)
	for dir != dest {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if !within(realDest, resolved) {
		return fmt.Errorf("illegal file path in archive: %s is reached through a symlink outside %s", targetPath, dest)
	}
	return nil
}

// checkLink refuses symlinks that are absolute or point outside dest.
func checkLink(dest, targetPath, linkname string) error {
	if filepath.IsAbs(linkname) || !within(dest, filepath.Join(filepath.Dir(targetPath), linkname)) {
		return fmt.Errorf("illegal symlink in archive: %s -> %s", targetPath, linkname)
	}
	return nil
}

func extractTar(realPath, dest, realDest string) (string, error) {
	f, err := os.Open(realPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", realPath, err)
	}
	defer f.Close()

	// Determine the compression type based on file extension
	var r io.Reader = f
	switch {
	case strings.HasSuffix(realPath, ".tar.gz") || strings.HasSuffix(realPath, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader for %s: %w", realPath, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(realPath, ".tar.bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(realPath, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("failed to create xz reader for %s: %w", realPath, err)
		}
		r = xzr
	case strings.HasSuffix(realPath, ".tar.zst"):
		zst, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("failed to create zstd reader for %s: %w", realPath, err)
		}
		defer zst.Close()
		r = zst
	case strings.HasSuffix(realPath, ".tar"):
		// No compression
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, realPath)
	}

	tr := tar.NewReader(r)
	var top string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("error reading tar header in %s: %w", realPath, err)
		}

		// PAX headers carry no content of their own
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		if top == "" {
			top = topLevel(hdr.Name)
		}

		targetPath, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return "", err
		}
		if err := checkParents(realDest, dest, targetPath); err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create parent dir for %s: %w", targetPath, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, hdr.FileInfo().Mode().Perm()|0o700); err != nil {
				return "", fmt.Errorf("failed to create dir %s: %w", targetPath, err)
			}
		case tar.TypeReg:
			if err := writeEntry(targetPath, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return "", err
			}
			// configure scripts compare timestamps; keep the archive's
			if err := os.Chtimes(targetPath, hdr.ModTime, hdr.ModTime); err != nil {
				return "", fmt.Errorf("failed to set times for file %s: %w", targetPath, err)
			}
		case tar.TypeSymlink:
			if err := checkLink(dest, targetPath, hdr.Linkname); err != nil {
				return "", err
			}
			if err := os.Symlink(hdr.Linkname, targetPath); err != nil && !os.IsExist(err) {
				return "", fmt.Errorf("failed to create symlink %s -> %s: %w", targetPath, hdr.Linkname, err)
			}
		case tar.TypeLink:
			linkTarget, err := safeJoin(dest, hdr.Linkname)
			if err != nil {
				return "", err
			}
			if err := checkParents(realDest, dest, linkTarget); err != nil {
				return "", err
			}
			if err := os.Link(linkTarget, targetPath); err != nil && !os.IsExist(err) {
				return "", fmt.Errorf("failed to create hard link %s -> %s: %w", targetPath, hdr.Linkname, err)
			}
		default:
			debugf("Skipping unsupported tar entry type %c: %s\n", hdr.Typeflag, hdr.Name)
		}
	}

	if top == "" {
		return "", fmt.Errorf("archive %s is empty", realPath)
	}
	return top, nil
}

func extractZip(src, dest, realDest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer r.Close()

	var top string
	for _, f := range r.File {
		if top == "" {
			top = topLevel(f.Name)
		}

		fpath, err := safeJoin(dest, f.Name)
		if err != nil {
			return "", err
		}
		if err := checkParents(realDest, dest, fpath); err != nil {
			return "", err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return "", err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return "", err
		}

		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(fpath, rc, f.Mode().Perm()|0o600)
		// Close inside the loop to avoid holding too many file descriptors.
		rc.Close()
		if err != nil {
			return "", err
		}
	}

	if top == "" {
		return "", fmt.Errorf("archive %s is empty", src)
	}
	return top, nil
}

// writeEntry replaces whatever is at targetPath, so an earlier symlink or
// hard link entry of the same name is never written through.
func writeEntry(targetPath string, r io.Reader, perm os.FileMode) error {
	if _, err := os.Lstat(targetPath); err == nil {
		_ = os.Remove(targetPath)
	}
	outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", targetPath, err)
	}
	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("failed to write file %s: %w", targetPath, err)
	}
	return outFile.Close()
}
