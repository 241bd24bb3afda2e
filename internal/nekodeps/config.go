package nekodeps

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Settings is the resolved, typed view of a Config used by a run.
type Settings struct {
	WorkDir   string // directory holding Deps/ (checked-in sources and outputs)
	TmpDir    string // parent for the per-run source directory
	CMake     string
	Generator string // forced cmake generator, empty to auto-detect
	UnitsFile string
	Sources   string // pre-staged archives used when a download is impossible
	NDK       string
	Retries   int
	Jobs      int
	KeepGoing bool
	Mirror    MirrorSettings
}

// MirrorSettings points the s3-mirror transport at an S3-compatible bucket.
type MirrorSettings struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a mirror bucket is configured.
func (m MirrorSettings) Enabled() bool {
	return m.Bucket != ""
}

// Load nekodeps.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge NEKODEPS_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge NEKODEPS_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "NEKODEPS_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}

	// NDK is read from the plain environment, without overwriting an explicit config file value
	if ndk := os.Getenv("NDK"); ndk != "" {
		if _, exists := cfg.Values["NDK"]; !exists {
			cfg.Values["NDK"] = ndk
		}
	}
}

// configPath returns the config file to load for workDir.
func configPath(workDir string) string {
	if p := os.Getenv("NEKODEPS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(workDir, ConfigFile)
}

func initConfig(cfg *Config, workDir string) Settings {
	s := Settings{WorkDir: workDir}

	if wd := cfg.Values["NEKODEPS_WORKDIR"]; wd != "" {
		s.WorkDir = wd
	}

	Debug = cfg.Values["NEKODEPS_DEBUG"] == "1"
	if cfg.Values["NEKODEPS_VERBOSE"] == "1" {
		Verbose = true
	}

	s.TmpDir = cfg.Values["NEKODEPS_TMPDIR"]
	if s.TmpDir == "" {
		s.TmpDir = os.TempDir()
	}

	s.CMake = cfg.Values["NEKODEPS_CMAKE"]
	if s.CMake == "" {
		s.CMake = "cmake"
	}
	s.Generator = cfg.Values["NEKODEPS_GENERATOR"]

	s.UnitsFile = cfg.Values["NEKODEPS_UNITS"]
	if s.UnitsFile == "" {
		s.UnitsFile = filepath.Join(s.WorkDir, "Deps", "units.yaml")
	}

	s.Sources = cfg.Values["NEKODEPS_SOURCES"]
	if s.Sources == "" {
		s.Sources = filepath.Join(s.WorkDir, "Deps", "sources")
	}

	s.NDK = cfg.Values["NDK"]
	s.KeepGoing = cfg.Values["NEKODEPS_KEEP_GOING"] == "1"

	s.Retries = 3
	if v, err := strconv.Atoi(cfg.Values["NEKODEPS_RETRIES"]); err == nil && v > 0 {
		s.Retries = v
	}

	s.Jobs = runtime.NumCPU()
	if v, err := strconv.Atoi(cfg.Values["NEKODEPS_JOBS"]); err == nil && v > 0 {
		s.Jobs = v
	}

	s.Mirror = MirrorSettings{
		Endpoint:        strings.TrimRight(cfg.Values["NEKODEPS_MIRROR_ENDPOINT"], "/"),
		Bucket:          cfg.Values["NEKODEPS_MIRROR_BUCKET"],
		Region:          cfg.Values["NEKODEPS_MIRROR_REGION"],
		AccessKeyID:     cfg.Values["NEKODEPS_MIRROR_ACCESS_KEY_ID"],
		SecretAccessKey: cfg.Values["NEKODEPS_MIRROR_SECRET_ACCESS_KEY"],
	}
	if s.Mirror.Region == "" {
		s.Mirror.Region = "auto"
	}

	debugf("=> workdir %s, tmpdir %s, cmake %s, retries %d, jobs %d\n", s.WorkDir, s.TmpDir, s.CMake, s.Retries, s.Jobs)
	return s
}
