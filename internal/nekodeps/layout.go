package nekodeps

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputLayout is the per-target install tree downstream projects link against.
type OutputLayout struct {
	Root    string
	Include string
	Lib     string
	Bin     string
	Meta    string // build logs and the install manifest
}

// NewLayout computes <workDir>/Deps/<os>/<arch> and its subdirectories.
func NewLayout(workDir string, t Target) OutputLayout {
	root := filepath.Join(workDir, "Deps", t.OS, t.Arch)
	return OutputLayout{
		Root:    root,
		Include: filepath.Join(root, "include"),
		Lib:     filepath.Join(root, "lib"),
		Bin:     filepath.Join(root, "bin"),
		Meta:    filepath.Join(root, "share", "nekodeps"),
	}
}

// Recreate destroys any previous output for the target and creates an empty
// root. include/lib/bin are left for the install steps to create.
func (l OutputLayout) Recreate() error {
	if _, err := os.Stat(l.Root); err == nil {
		debugf("Removing previous output %s\n", l.Root)
		if err := os.RemoveAll(l.Root); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrLayout, l.Root, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", ErrLayout, l.Root, err)
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrLayout, l.Root, err)
	}
	return nil
}

// EnsureDirs creates include, lib and bin for steps that copy files in
// directly instead of running an install step.
func (l OutputLayout) EnsureDirs() error {
	for _, dir := range []string{l.Include, l.Lib, l.Bin} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrLayout, dir, err)
		}
	}
	return nil
}

// LogDir holds the compressed per-unit build logs.
func (l OutputLayout) LogDir() string {
	return filepath.Join(l.Meta, "logs")
}

// lockPath is the advisory lock guarding a target's tree across processes.
func lockPath(workDir string, t Target) string {
	return filepath.Join(workDir, "Deps", fmt.Sprintf(".%s-%s.lock", t.OS, t.Arch))
}

// TargetLock is held for the duration of a run.
type TargetLock struct {
	f *os.File
}

// LockTarget takes the exclusive lock for t without blocking. It returns
// ErrTargetLocked if another run holds it.
func LockTarget(workDir string, t Target) (*TargetLock, error) {
	path := lockPath(workDir, t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrLayout, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrTargetLocked, t, err)
	}
	return &TargetLock{f: f}, nil
}

// Release unlocks the lock file. The file stays in place: removing it would
// let a waiting run lock the old inode while another creates a new one.
func (l *TargetLock) Release() {
	if l == nil || l.f == nil {
		return
	}
	_ = unlockFile(l.f)
	l.f.Close()
	l.f = nil
}
