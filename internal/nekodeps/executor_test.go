package nekodeps

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestExecutorRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	var out bytes.Buffer
	err := NewExecutor().Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "pwd; echo $NEKODEPS_TEST_VAR"},
		Dir:    dir,
		Env:    []string{"NEKODEPS_TEST_VAR=set"},
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want, _ := filepath.EvalSymlinks(dir)
	if got, _ := filepath.EvalSymlinks(lines[0]); got != want {
		t.Errorf("ran in %q, want %q", lines[0], dir)
	}
	if len(lines) < 2 || lines[1] != "set" {
		t.Errorf("env not passed: %q", out.String())
	}
}

func TestExecutorExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	err := NewExecutor().Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}, Dir: t.TempDir()})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.ExitCode != 3 {
		t.Fatalf("err = %v, want exit status 3", err)
	}
	if !errors.Is(err, ErrCommandFailed) {
		t.Error("ErrCommandFailed not wrapped")
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	err := NewExecutor().Run(context.Background(), Command{Name: "nekodeps-no-such-tool", Dir: t.TempDir()})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.ExitCode != -1 {
		t.Errorf("err = %v, want a CommandError with ExitCode -1", err)
	}
}

func TestExecutorCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewExecutor().Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}, Dir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecutorCancelKillsProcessTree(t *testing.T) {
	// the grandchild holds the output pipe open; Run only returns promptly
	// if it is killed along with the child
	name, args := "sh", []string{"-c", "sleep 30 | cat"}
	if runtime.GOOS == "windows" {
		name, args = "cmd", []string{"/c", "ping -n 30 127.0.0.1 | findstr x"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	start := time.Now()
	err := NewExecutor().Run(ctx, Command{Name: name, Args: args, Dir: t.TempDir(), Stdout: &out, Stderr: &out})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if d := time.Since(start); d > 10*time.Second {
		t.Errorf("Run returned after %s, spawned processes outlived cancellation", d)
	}
}
