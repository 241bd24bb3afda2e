package nekodeps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Pipeline builds every unit for one target into its OutputLayout.
// Units run one at a time: later units read files earlier ones installed.
type Pipeline struct {
	Target   Target
	Layout   OutputLayout
	Base     ToolchainFlags
	Units    []Unit
	Settings Settings
	Runner   Runner
	Acquirer *Acquirer
	Stdout   io.Writer // console side of each unit's output, defaults to os.Stdout

	localDir string // <workdir>/Deps, checked-in sources
	srcDir   string // per-run directory for downloaded sources
}

// NewPipeline derives the layout, base flags and unit list for t. Nothing
// on disk is touched until Run.
func NewPipeline(t Target, s Settings, r Runner, a *Acquirer) (*Pipeline, error) {
	layout := NewLayout(s.WorkDir, t)

	base, err := BaseFlags(t, layout, s, exec.LookPath)
	if err != nil {
		return nil, err
	}

	units := UnitsFor(t, layout)
	extra, err := LoadOverlay(s.UnitsFile, t, layout)
	if err != nil {
		return nil, err
	}
	units = append(units, extra...)

	return &Pipeline{
		Target:   t,
		Layout:   layout,
		Base:     base,
		Units:    units,
		Settings: s,
		Runner:   r,
		Acquirer: a,
		localDir: filepath.Join(s.WorkDir, "Deps"),
	}, nil
}

// Run recreates the layout, builds every unit in order, runs the platform's
// extension steps and writes the install manifest. The first failure stops
// the run unless Settings.KeepGoing is set, in which case all failures are
// returned together at the end.
func (p *Pipeline) Run(ctx context.Context) error {
	startTime := time.Now()

	if err := p.Layout.Recreate(); err != nil {
		return err
	}
	if p.localDir == "" {
		p.localDir = filepath.Join(p.Settings.WorkDir, "Deps")
	}

	srcDir, err := os.MkdirTemp(p.Settings.TmpDir, "nekodeps-")
	if err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}
	defer os.RemoveAll(srcDir)
	p.srcDir = srcDir

	var failed []error
	record := func(err error) error {
		if err == nil {
			return nil
		}
		if !p.Settings.KeepGoing || ctx.Err() != nil {
			return err
		}
		colArrow.Print("-> ")
		colError.Printf("%v (continuing)\n", err)
		failed = append(failed, err)
		return nil
	}

	for i, u := range p.Units {
		if err := ctx.Err(); err != nil {
			return err
		}
		step("[%d/%d] %s", i+1, len(p.Units), u.Name)
		if err := record(p.BuildUnit(ctx, u)); err != nil {
			return err
		}
	}

	for _, ext := range platformFor(p.Target.OS).Extensions {
		if err := ctx.Err(); err != nil {
			return err
		}
		debugf("Running extension step %s\n", ext.Name())
		if err := record(ext.Run(ctx, p)); err != nil {
			return err
		}
	}

	if err := WriteManifest(p.Layout); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	step("Dependencies built in %s (%s)", p.Layout.Root, time.Since(startTime).Truncate(time.Second))
	return nil
}

// BuildUnit dispatches u to its build system's pipeline variant.
func (p *Pipeline) BuildUnit(ctx context.Context, u Unit) error {
	switch u.System {
	case "", BuildCMake:
		return p.BuildCMake(ctx, u)
	case BuildAutotools:
		return p.BuildAutotools(ctx, u)
	default:
		return stepErr(u.Name, StepPrepare, fmt.Errorf("unknown build system %q", u.System))
	}
}

// BuildCMake runs configure, build and install for a cmake project in a
// fresh build/ directory inside its sources.
func (p *Pipeline) BuildCMake(ctx context.Context, u Unit) error {
	log, err := openBuildLog(p.srcDir, p.Layout.LogDir(), u.Name, p.console())
	if err != nil {
		return stepErr(u.Name, StepPrepare, err)
	}
	defer closeBuildLog(log)

	src, err := p.sources(ctx, u)
	if err != nil {
		return err
	}

	buildDir := filepath.Join(src, "build")
	if err := os.RemoveAll(buildDir); err != nil {
		return stepErr(u.Name, StepPrepare, err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return stepErr(u.Name, StepPrepare, err)
	}

	cmake := p.Settings.CMake
	configure := append([]string{"-S", src, "-B", buildDir}, p.Base.With(u.Args...)...)
	if err := p.exec(ctx, u.Name, StepConfigure, log, buildDir, cmake, configure...); err != nil {
		return err
	}
	if err := p.exec(ctx, u.Name, StepBuild, log, buildDir, cmake, "--build", buildDir, "--config", "Release"); err != nil {
		return err
	}
	return p.exec(ctx, u.Name, StepInstall, log, buildDir, cmake, "--install", buildDir, "--config", "Release")
}

// BuildAutotools builds a configure-script project in place.
func (p *Pipeline) BuildAutotools(ctx context.Context, u Unit) error {
	log, err := openBuildLog(p.srcDir, p.Layout.LogDir(), u.Name, p.console())
	if err != nil {
		return stepErr(u.Name, StepPrepare, err)
	}
	defer closeBuildLog(log)

	src, err := p.sources(ctx, u)
	if err != nil {
		return err
	}

	if err := p.exec(ctx, u.Name, StepConfigure, log, src, "sh", "configure", "--prefix="+p.Layout.Root); err != nil {
		return err
	}
	if err := p.exec(ctx, u.Name, StepBuild, log, src, "make", fmt.Sprintf("-j%d", p.Settings.Jobs)); err != nil {
		return err
	}
	return p.exec(ctx, u.Name, StepInstall, log, src, "make", "install")
}

// sources returns the unit's source directory, downloading and extracting
// it first when the unit has a URL.
func (p *Pipeline) sources(ctx context.Context, u Unit) (string, error) {
	if u.Local() {
		dir := filepath.Join(p.localDir, u.SourceDir())
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return "", stepErr(u.Name, StepPrepare, fmt.Errorf("checked-in sources not found at %s", dir))
		}
		return dir, nil
	}

	top, err := p.Acquirer.Fetch(ctx, u.Name, p.srcDir, u.Archive(), u.URL)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(p.srcDir, u.SourceDir())
	if _, err := os.Stat(dir); err != nil {
		debugf("%s extracted as %s\n", u.Name, filepath.Base(top))
		return top, nil
	}
	return dir, nil
}

// exec runs one pipeline step, sending its output to w.
func (p *Pipeline) exec(ctx context.Context, unit, stepName string, w io.Writer, dir, name string, args ...string) error {
	err := p.Runner.Run(ctx, Command{
		Name:   name,
		Args:   args,
		Dir:    dir,
		Stdout: w,
		Stderr: w,
	})
	return stepErr(unit, stepName, err)
}

func (p *Pipeline) console() io.Writer {
	if p.Stdout != nil {
		return p.Stdout
	}
	return os.Stdout
}
