package nekodeps

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: nekodeps [command] [os] [arch] [version]")
	colSuccess.Println("Missing os/arch/version are taken from the host (iOS defaults to arm64 16.4)")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build, b", "[-v] [-debug] [-keep-going] [-workdir dir] [os] [arch] [version]", "Build all dependencies into Deps/<os>/<arch> (default command)"},
		{"units, u", "[-workdir dir] [os] [arch] [version]", "List the units and extension steps for a target"},
		{"flags", "[-workdir dir] [os] [arch] [version]", "Print the base cmake flags for a target"},
		{"log, l", "[-workdir dir] <unit> [os] [arch] [version]", "Show a unit's build log from the last run"},
		{"files", "[-workdir dir] [os] [arch] [version]", "Show the install manifest from the last run"},
		{"version, --version", "", "Version information"},
		{"help, -h", "", "Show this help"},
	}

	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		usageString := "  " + c.Cmd
		if c.Args != "" {
			usageString += " " + c.Args
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))
		color.Info.Println(c.Desc)
	}
	fmt.Println()
}

// Main is the CLI entrypoint.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling build\n", sig)
			cancel()
			// A second signal, or a build tool that ignores the kill, forces exit
			select {
			case <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Println("Second interrupt received. Forcing immediate exit.")
			case <-time.After(10 * time.Second):
				colArrow.Print("\n-> ")
				color.Danger.Println("Graceful shutdown timeout. Exiting.")
			}
			os.Exit(130)
		case <-ctx.Done():
		}
	}()

	os.Exit(run(ctx, os.Args[1:]))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string) int {
	cmd := "build"
	if len(args) > 0 {
		switch args[0] {
		case "build", "b", "units", "u", "flags", "log", "l", "files":
			cmd, args = args[0], args[1:]
		case "version", "--version":
			fmt.Printf("nekodeps %s (built %s)\n", version, buildDate)
			return 0
		case "help", "-h", "--help":
			printHelp()
			return 0
		}
	}

	var err error
	switch cmd {
	case "build", "b":
		err = handleBuildCommand(ctx, args)
	case "units", "u":
		err = handleUnitsCommand(args, os.Stdout)
	case "flags":
		err = handleFlagsCommand(args, os.Stdout)
	case "log", "l":
		err = handleLogCommand(args)
	case "files":
		err = handleFilesCommand(args)
	}

	if err != nil {
		reportError(err)
		return 1
	}
	return 0
}

func reportError(err error) {
	var se *StepError
	colArrow.Print("-> ")
	if errors.As(err, &se) && !strings.Contains(err.Error(), "\n") {
		colError.Printf("Unit %s failed during %s: %v\n", se.Unit, se.Step, se.Err)
		return
	}
	colError.Printf("Error: %v\n", err)
}

// targetFromArgs resolves up to three positional arguments against the host.
func targetFromArgs(args []string) (Target, error) {
	if len(args) > 3 {
		return Target{}, fmt.Errorf("too many arguments: %s (expected [os] [arch] [version])", strings.Join(args, " "))
	}
	var in [3]string
	copy(in[:], args)

	host, err := DetectHost()
	if err != nil {
		return Target{}, fmt.Errorf("failed to detect host: %w", err)
	}
	return ResolveTarget(in[0], in[1], in[2], host), nil
}

// loadSettings reads the config for workDir (the current directory when empty).
func loadSettings(workDir string) (Settings, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Settings{}, err
		}
		workDir = wd
	}
	cfg, err := loadConfig(configPath(workDir))
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config: %w", err)
	}
	return initConfig(cfg, workDir), nil
}

func handleBuildCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose output")
	debug := fs.Bool("debug", false, "print debug output")
	keepGoing := fs.Bool("keep-going", false, "continue with the next unit after a failure")
	workDir := fs.String("workdir", "", "directory containing Deps/ (default: current directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := loadSettings(*workDir)
	if err != nil {
		return err
	}
	if *verbose {
		Verbose = true
	}
	if *debug {
		Debug = true
	}
	if *keepGoing {
		s.KeepGoing = true
	}

	t, err := targetFromArgs(fs.Args())
	if err != nil {
		return err
	}
	step("Building dependencies for %s %s (%s)", t.OS, t.Arch, t.Version)

	lock, err := LockTarget(s.WorkDir, t)
	if err != nil {
		return err
	}
	defer lock.Release()

	runner := NewExecutor()
	var mirror Transport
	if s.Mirror.Enabled() {
		m, err := newMirrorTransport(ctx, s.Mirror)
		if err != nil {
			return err
		}
		mirror = m
	}
	acq := NewAcquirer(DefaultTransports(runner, mirror), s.Retries, s.Sources)
	if acq.Transport == nil {
		warnf("No downloader found; only pre-staged archives can be used")
	} else if Verbose {
		step("Downloading with %s", acq.Transport.Name())
	}

	p, err := NewPipeline(t, s, runner, acq)
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

// parseInspectFlags handles the flags shared by the commands that read a
// previous run's output and returns the settings and positional arguments.
func parseInspectFlags(name string, args []string) (Settings, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	workDir := fs.String("workdir", "", "directory containing Deps/ (default: current directory)")
	if err := fs.Parse(args); err != nil {
		return Settings{}, nil, err
	}
	s, err := loadSettings(*workDir)
	return s, fs.Args(), err
}

func handleUnitsCommand(args []string, w io.Writer) error {
	s, args, err := parseInspectFlags("units", args)
	if err != nil {
		return err
	}
	t, err := targetFromArgs(args)
	if err != nil {
		return err
	}
	layout := NewLayout(s.WorkDir, t)
	units := UnitsFor(t, layout)
	extra, err := LoadOverlay(s.UnitsFile, t, layout)
	if err != nil {
		return err
	}
	units = append(units, extra...)

	fmt.Fprintf(w, "Units for %s:\n", t)
	for i, u := range units {
		source := u.URL
		if u.Local() {
			source = "checked in"
		}
		system := u.System
		if system == "" {
			system = BuildCMake
		}
		fmt.Fprintf(w, "%3d. %-24s %-10s %s\n", i+1, u.Name, system, source)
	}
	for _, ext := range platformFor(t.OS).Extensions {
		fmt.Fprintf(w, "  +  %s\n", ext.Name())
	}
	return nil
}

func handleFlagsCommand(args []string, w io.Writer) error {
	s, args, err := parseInspectFlags("flags", args)
	if err != nil {
		return err
	}
	t, err := targetFromArgs(args)
	if err != nil {
		return err
	}
	flags, err := BaseFlags(t, NewLayout(s.WorkDir, t), s, exec.LookPath)
	if err != nil {
		return err
	}
	for _, f := range flags {
		fmt.Fprintln(w, f)
	}
	return nil
}

func handleLogCommand(args []string) error {
	s, args, err := parseInspectFlags("log", args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: nekodeps log [-workdir dir] <unit> [os] [arch] [version]")
	}
	t, err := targetFromArgs(args[1:])
	if err != nil {
		return err
	}
	lines, err := ReadBuildLog(NewLayout(s.WorkDir, t), args[0])
	if err != nil {
		return err
	}
	return RunPager(args[0]+" build log", lines)
}

func handleFilesCommand(args []string) error {
	s, args, err := parseInspectFlags("files", args)
	if err != nil {
		return err
	}
	t, err := targetFromArgs(args)
	if err != nil {
		return err
	}
	entries, err := parseManifest(ManifestPath(NewLayout(s.WorkDir, t)))
	if err != nil {
		return fmt.Errorf("no manifest for %s: %w", t, err)
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Path)
	}
	return RunPager(fmt.Sprintf("%s %s files", t.OS, t.Arch), lines)
}
