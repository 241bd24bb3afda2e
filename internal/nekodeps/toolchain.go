package nekodeps

// ToolchainFlags is the cmake argument list shared by every unit of a run.
type ToolchainFlags []string

// With returns a new slice of the base flags followed by extra. The
// receiver is never modified, so units cannot leak flags into each other.
func (f ToolchainFlags) With(extra ...string) []string {
	out := make([]string, 0, len(f)+len(extra))
	out = append(out, f...)
	return append(out, extra...)
}

// CFlags returns the -DCMAKE_C_FLAGS argument for t: the layout's include
// dir always, and position-independent code where the platform wants it.
func CFlags(t Target, l OutputLayout) string {
	if platformFor(t.OS).PIC {
		return "-DCMAKE_C_FLAGS=-fPIC -I" + l.Include
	}
	return "-DCMAKE_C_FLAGS=-I" + l.Include
}

// BaseFlags computes the cmake arguments for t once per run.
func BaseFlags(t Target, l OutputLayout, s Settings, lookPath LookPathFunc) (ToolchainFlags, error) {
	flags := ToolchainFlags{
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_PREFIX_PATH=" + l.Root,
		"-DCMAKE_INSTALL_PREFIX=" + l.Root,
		CFlags(t, l),
	}

	switch {
	case s.Generator != "":
		flags = append(flags, "-G", s.Generator)
	case lookPath != nil:
		if _, err := lookPath("ninja"); err == nil {
			flags = append(flags, "-G", "Ninja")
		}
	}

	if cross := platformFor(t.OS).CrossFlags; cross != nil {
		extra, err := cross(t, s)
		if err != nil {
			return nil, err
		}
		flags = append(flags, extra...)
	}

	debugf("Base toolchain flags: %v\n", []string(flags))
	return flags, nil
}
