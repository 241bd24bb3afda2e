//go:build windows

package nekodeps

import (
	"os/exec"
	"unsafe"

	"golang.org/x/sys/windows"
)

// processTree is a job object holding the command and everything it starts,
// so cancellation reaches ninja and the compilers under cmake. Processes the
// child spawns before attach runs are not in the job.
type processTree struct {
	job windows.Handle
}

func newProcessTree(cmd *exec.Cmd) *processTree {
	t := &processTree{}
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		debugf("job object unavailable: %v\n", err)
		return t
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(job, windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info))); err != nil {
		debugf("job object limits: %v\n", err)
		windows.CloseHandle(job)
		return t
	}
	t.job = job
	cmd.Cancel = func() error {
		if err := windows.TerminateJobObject(job, 1); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	return t
}

// attach puts the started process into the job.
func (t *processTree) attach(cmd *exec.Cmd) {
	if t.job == 0 {
		return
	}
	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(cmd.Process.Pid))
	if err != nil {
		debugf("open process %d: %v\n", cmd.Process.Pid, err)
		return
	}
	defer windows.CloseHandle(h)
	if err := windows.AssignProcessToJobObject(t.job, h); err != nil {
		debugf("assign process %d to job: %v\n", cmd.Process.Pid, err)
	}
}

// close releases the job; with KILL_ON_JOB_CLOSE this also ends anything
// the command left running.
func (t *processTree) close() {
	if t.job != 0 {
		windows.CloseHandle(t.job)
		t.job = 0
	}
}
