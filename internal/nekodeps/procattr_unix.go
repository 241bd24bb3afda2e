//go:build unix

package nekodeps

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// processTree is the child's process group; cmake spawns ninja/make which
// spawn compilers, and cancellation kills the whole group.
type processTree struct{}

func newProcessTree(cmd *exec.Cmd) *processTree {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	return &processTree{}
}

// attach is a no-op: the group exists from fork.
func (t *processTree) attach(*exec.Cmd) {}

func (t *processTree) close() {}
