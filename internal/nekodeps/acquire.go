package nekodeps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Acquirer downloads and unpacks source archives with the transport
// resolved once for the run.
type Acquirer struct {
	Transport Transport // nil when no downloader exists on the host
	Retries   int
	Backoff   time.Duration
	Staged    string // directory of pre-staged archives, see staged
}

// NewAcquirer resolves the transport from the ranked candidates. staged is
// the directory searched for archives that cannot be downloaded.
func NewAcquirer(candidates []Transport, retries int, staged string) *Acquirer {
	if retries < 1 {
		retries = 1
	}
	return &Acquirer{
		Transport: ResolveTransport(candidates),
		Retries:   retries,
		Backoff:   2 * time.Second,
		Staged:    staged,
	}
}

// staged returns <Staged>/<file> if it exists.
func (a *Acquirer) staged(file string) (string, bool) {
	if a.Staged == "" {
		return "", false
	}
	path := filepath.Join(a.Staged, file)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, true
	}
	return "", false
}

// Download fetches url to <dir>/<file> and returns the local path. Failed
// attempts are retried after removing the partial file. When there is no
// transport, or every attempt fails, a pre-staged copy of file is used
// instead.
func (a *Acquirer) Download(ctx context.Context, dir, file, url string) (string, error) {
	dest := filepath.Join(dir, file)

	if a.Transport == nil {
		if path, ok := a.staged(file); ok {
			warnf("No downloader available, using pre-staged %s", path)
			return path, nil
		}
		return "", fmt.Errorf("%w: cannot fetch %s (no %s in %s)", ErrNoTransport, url, file, a.Staged)
	}

	var err error
	for attempt := 1; attempt <= a.Retries; attempt++ {
		_ = os.Remove(dest)
		debugf("Downloading %s -> %s (%s, attempt %d)\n", url, dest, a.Transport.Name(), attempt)
		if err = a.Transport.Fetch(ctx, dest, url); err == nil {
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt < a.Retries {
			warnf("Download of %s failed (%v), retrying", file, err)
			select {
			case <-time.After(a.Backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	_ = os.Remove(dest)
	if path, ok := a.staged(file); ok {
		warnf("Download of %s failed, using pre-staged %s", file, path)
		return path, nil
	}
	return "", fmt.Errorf("download %s via %s: %w", url, a.Transport.Name(), err)
}

// Fetch downloads url as <dir>/<file>, extracts it into dir and returns the
// extracted top-level directory. Failures are reported as StepErrors.
func (a *Acquirer) Fetch(ctx context.Context, unit, dir, file, url string) (string, error) {
	archive, err := a.Download(ctx, dir, file, url)
	if err != nil {
		return "", stepErr(unit, StepFetch, err)
	}
	top, err := Extract(archive, dir)
	if err != nil {
		return "", stepErr(unit, StepExtract, err)
	}
	return filepath.Join(dir, top), nil
}
