//go:build unix

package nekodeps

import "golang.org/x/sys/unix"

type unameHost struct {
	uts unix.Utsname
}

// DetectHost inspects the running host with uname(2).
func DetectHost() (HostInfo, error) {
	h := &unameHost{}
	if err := unix.Uname(&h.uts); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *unameHost) System() string  { return unix.ByteSliceToString(h.uts.Sysname[:]) }
func (h *unameHost) Machine() string { return unix.ByteSliceToString(h.uts.Machine[:]) }
func (h *unameHost) Release() string { return unix.ByteSliceToString(h.uts.Release[:]) }
