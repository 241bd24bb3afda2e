package nekodeps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// extensionStep is a target-specific step run after the unit sequence,
// outside the generic configure/build/install pipeline.
type extensionStep interface {
	Name() string
	Run(ctx context.Context, p *Pipeline) error
}

// prebuiltCopy moves one path out of an extracted prebuilt package. From
// is relative to the package directory and may contain {arch}; To is
// relative to the layout root.
type prebuiltCopy struct {
	From string
	To   string
	Tree bool
}

// prebuiltPackage is a binary distribution copied straight into the layout.
type prebuiltPackage struct {
	Package string
	URL     string
	Archive string
	Arch64  string // {arch} value for 64-bit targets
	Arch32  string // {arch} value for 32-bit targets
	Copies  []prebuiltCopy
}

// Cairo cannot be built on Windows because of its autotools/meson build.
var cairoWindows = &prebuiltPackage{
	Package: "cairo-windows-1.17.2",
	URL:     "https://github.com/preshing/cairo-windows/releases/download/1.17.2/cairo-windows-1.17.2.zip",
	Archive: "cairo.zip",
	Arch64:  "x64",
	Arch32:  "x86",
	Copies: []prebuiltCopy{
		{From: "include", To: "include/cairo", Tree: true},
		{From: "lib/{arch}/cairo.lib", To: "lib/cairo.lib"},
		{From: "lib/{arch}/cairo.dll", To: "bin/cairo.dll"},
	},
}

var openALWindows = &prebuiltPackage{
	Package: "openal-soft-1.23.1-bin",
	URL:     "https://openal-soft.org/openal-binaries/openal-soft-1.23.1-bin.zip",
	Archive: "openal.zip",
	Arch64:  "Win64",
	Arch32:  "Win32",
	Copies: []prebuiltCopy{
		{From: "include/AL", To: "include/AL", Tree: true},
		{From: "libs/{arch}/libOpenAL32.dll.a", To: "lib/libOpenAL32.dll.a"},
		{From: "libs/{arch}/OpenAL32.def", To: "lib/OpenAL32.def"},
		{From: "libs/{arch}/OpenAL32.lib", To: "lib/OpenAL32.lib"},
		{From: "bin/{arch}/soft_oal.dll", To: "bin/OpenAL32.dll"},
	},
}

// windowsArchBits maps a Windows arch name to its pointer width. Only the
// x86 family is recognised: neither package ships ARM64 binaries, so ARM64
// is ErrUnsupportedArch rather than silently getting the 32-bit x86 build.
func windowsArchBits(arch string) (int, error) {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64", "x64":
		return 64, nil
	case "x86", "i386", "i686", "386":
		return 32, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedArch, arch)
}

func (pkg *prebuiltPackage) Name() string { return pkg.Package }

// Run downloads the package, picks the arch variant and copies its headers,
// import libraries and DLLs into the layout. There is no build step.
func (pkg *prebuiltPackage) Run(ctx context.Context, p *Pipeline) error {
	bits, err := windowsArchBits(p.Target.Arch)
	if err != nil {
		return stepErr(pkg.Package, StepPrepare, err)
	}
	variant := pkg.Arch32
	if bits == 64 {
		variant = pkg.Arch64
	}

	step("%s (prebuilt, %s)", pkg.Package, variant)
	dir, err := p.Acquirer.Fetch(ctx, pkg.Package, p.srcDir, pkg.Archive, pkg.URL)
	if err != nil {
		return err
	}
	if err := p.Layout.EnsureDirs(); err != nil {
		return stepErr(pkg.Package, StepCopy, err)
	}

	for _, c := range pkg.Copies {
		from := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(c.From, "{arch}", variant)))
		to := filepath.Join(p.Layout.Root, filepath.FromSlash(c.To))
		debugf("copy %s -> %s\n", from, to)
		if c.Tree {
			err = copyDir(from, to)
		} else {
			err = copyFile(from, to)
		}
		if err != nil {
			return stepErr(pkg.Package, StepCopy, err)
		}
	}
	return nil
}

// unavailableStep stands in for the prebuilt packages on targets where no
// binary distribution exists and no source build is wired up.
type unavailableStep struct {
	packages []*prebuiltPackage
}

var prebuiltUnavailable = unavailableStep{packages: []*prebuiltPackage{cairoWindows, openALWindows}}

func (s unavailableStep) Name() string { return "prebuilt packages" }

func (s unavailableStep) Run(_ context.Context, p *Pipeline) error {
	for _, pkg := range s.packages {
		warnf("%s is only available prebuilt for Windows, skipping on %s", pkg.Package, p.Target.OS)
	}
	return nil
}
