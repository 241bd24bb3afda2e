package nekodeps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// buildLog tees a unit's subprocess output to the console and a plain log
// file, which is xz-compressed into the layout when the unit finishes.
type buildLog struct {
	f    *os.File
	w    io.Writer
	dest string
}

func openBuildLog(tmpDir, logDir, unit string, console io.Writer) (*buildLog, error) {
	f, err := os.CreateTemp(tmpDir, unit+"-*.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return &buildLog{
		f:    f,
		w:    io.MultiWriter(console, f),
		dest: filepath.Join(logDir, unit+".log.xz"),
	}, nil
}

func (b *buildLog) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

// Close compresses the log into place and removes the plain file.
func (b *buildLog) Close() error {
	plain := b.f.Name()
	defer os.Remove(plain)
	if err := b.f.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.dest), 0o755); err != nil {
		return err
	}
	return compressXZ(plain, b.dest)
}

func closeBuildLog(b *buildLog) {
	if err := b.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to compress build log: %v\n", err)
	}
}

func compressXZ(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	xzWriter, err := xz.NewWriter(dest)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := io.Copy(xzWriter, src); err != nil {
		xzWriter.Close()
		return fmt.Errorf("failed to compress %s: %w", srcPath, err)
	}
	if err := xzWriter.Close(); err != nil {
		return err
	}
	return dest.Close()
}

// ReadBuildLog returns the lines of a unit's compressed build log.
func ReadBuildLog(l OutputLayout, unit string) ([]string, error) {
	path := filepath.Join(l.LogDir(), unit+".log.xz")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no build log found for %s: %w", unit, err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("error creating xz reader: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(xr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		// progress output from ninja and curl uses bare carriage returns
		line := scanner.Text()
		if i := strings.LastIndexByte(line, '\r'); i >= 0 {
			line = line[i+1:]
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
