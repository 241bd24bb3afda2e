package nekodeps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLayout             = errors.New("output layout operation failed")
	ErrNoTransport        = errors.New("no download transport available")
	ErrMissingNDK         = errors.New("NDK environment variable is not set")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrUnsupportedArch    = errors.New("unsupported architecture")
	ErrTargetLocked       = errors.New("target is locked by another run")
	ErrCommandFailed      = errors.New("command failed")
)

// Pipeline step names reported in StepError.
const (
	StepFetch     = "fetch"
	StepExtract   = "extract"
	StepPrepare   = "prepare"
	StepConfigure = "configure"
	StepBuild     = "build"
	StepInstall   = "install"
	StepCopy      = "copy"
)

// StepError reports which unit and which step of its pipeline failed.
type StepError struct {
	Unit string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Unit, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(unit, step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Unit: unit, Step: step, Err: err}
}

// CommandError is returned by a Runner when a subprocess cannot start or
// exits with a non-zero status. ExitCode is -1 when the process never ran.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit status %d", cmdline, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *CommandError) Unwrap() []error {
	return []error{ErrCommandFailed, e.Err}
}
