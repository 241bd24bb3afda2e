package nekodeps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Transport is one way of fetching a URL to a local file.
type Transport interface {
	Name() string
	Available() bool
	Fetch(ctx context.Context, dest, url string) error
}

// LookPathFunc finds an executable on the host's search path.
type LookPathFunc func(file string) (string, error)

// toolTransport shells out to a command-line downloader.
type toolTransport struct {
	tool     string
	args     func(dest, url string) []string
	runner   Runner
	lookPath LookPathFunc
}

func (t *toolTransport) Name() string { return t.tool }

func (t *toolTransport) Available() bool {
	_, err := t.lookPath(t.tool)
	return err == nil
}

func (t *toolTransport) Fetch(ctx context.Context, dest, url string) error {
	return t.runner.Run(ctx, Command{
		Name: t.tool,
		Args: t.args(dest, url),
		Dir:  filepath.Dir(dest),
	})
}

func curlTransport(r Runner, lookPath LookPathFunc) Transport {
	return &toolTransport{tool: "curl", runner: r, lookPath: lookPath, args: func(dest, url string) []string {
		return []string{"-L", "--fail", "-#", "-o", dest, url}
	}}
}

func wgetTransport(r Runner, lookPath LookPathFunc) Transport {
	return &toolTransport{tool: "wget", runner: r, lookPath: lookPath, args: func(dest, url string) []string {
		return []string{"-nv", "-O", dest, url}
	}}
}

func powershellTransport(r Runner, lookPath LookPathFunc) Transport {
	return &toolTransport{tool: "powershell", runner: r, lookPath: lookPath, args: func(dest, url string) []string {
		return []string{"-NoProfile", "-Command",
			fmt.Sprintf("$ProgressPreference = 'SilentlyContinue'; Invoke-WebRequest -Uri '%s' -OutFile '%s'", url, dest)}
	}}
}

// httpTransport is the native fallback; it is always available.
type httpTransport struct {
	client *http.Client
}

func newHTTPTransport() *httpTransport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Some mirrors (sourceforge, savannah) are slow to complete the handshake.
	transport.TLSHandshakeTimeout = 30 * time.Second
	return &httpTransport{client: &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second,
	}}
}

func (t *httpTransport) Name() string    { return "http" }
func (t *httpTransport) Available() bool { return true }

func (t *httpTransport) Fetch(ctx context.Context, dest, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dest, err)
	}
	defer out.Close()

	var w io.Writer = out
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
		defer bar.Finish()
		w = io.MultiWriter(out, bar)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	return out.Close()
}

// DefaultTransports returns the ranked downloader list: the mirror (when
// configured), then curl, wget, powershell, and finally native HTTP.
func DefaultTransports(r Runner, mirror Transport) []Transport {
	var ts []Transport
	if mirror != nil {
		ts = append(ts, mirror)
	}
	return append(ts,
		curlTransport(r, exec.LookPath),
		wgetTransport(r, exec.LookPath),
		powershellTransport(r, exec.LookPath),
		newHTTPTransport(),
	)
}

// ResolveTransport returns the first available transport, or nil.
func ResolveTransport(candidates []Transport) Transport {
	for _, t := range candidates {
		if t.Available() {
			debugf("Using %s for downloads\n", t.Name())
			return t
		}
		debugf("%s not available\n", t.Name())
	}
	return nil
}
