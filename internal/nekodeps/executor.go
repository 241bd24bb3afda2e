package nekodeps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is one subprocess invocation. Dir is always explicit; the
// orchestrator never changes its own working directory.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Env    []string  // appended to the inherited environment
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes subprocesses. A nil error means exit status 0.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Executor runs commands on the host, passing stdio through.
type Executor struct{}

// NewExecutor returns the host Runner.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run starts the command as its own process tree so cancelling ctx kills
// everything it spawned, waits for it, and reports a non-zero exit as
// *CommandError.
func (e *Executor) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	tree := newProcessTree(cmd)
	defer tree.close()

	debugf("exec [%s] %s\n", c.Dir, c)

	err := cmd.Start()
	if err == nil {
		tree.attach(cmd)
		err = cmd.Wait()
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("command aborted: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Name: c.Name, Args: c.Args, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return &CommandError{Name: c.Name, Args: c.Args, ExitCode: -1, Err: err}
	}
	return nil
}
