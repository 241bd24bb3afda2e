package nekodeps

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// overlayFile is the optional units.yaml appending units to the built-in
// list:
//
//	units:
//	  - name: libsndfile-1.2.2
//	    url: https://github.com/libsndfile/libsndfile/releases/download/1.2.2/libsndfile-1.2.2.tar.xz
//	    args: ["-DBUILD_SHARED_LIBS=OFF", "-DOGG_INCLUDE_DIR={include}"]
//	    skip: [iOS]
//	  - name: libffi-3.4.4
//	    build: autotools
//	    url: https://github.com/libffi/libffi/releases/download/v3.4.4/libffi-3.4.4.tar.gz
type overlayFile struct {
	Units []overlayUnit `yaml:"units"`
}

type overlayUnit struct {
	Name  string   `yaml:"name"`
	URL   string   `yaml:"url"`
	Dir   string   `yaml:"dir"`
	Build string   `yaml:"build"`
	Args  []string `yaml:"args"`
	Skip  []string `yaml:"skip"`
}

// LoadOverlay reads path and returns its units for t, with {root},
// {include}, {lib} and {bin} in args expanded to l's paths. A missing file
// yields no units.
func LoadOverlay(path string, t Target, l OutputLayout) ([]Unit, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read units file: %w", err)
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	expand := strings.NewReplacer(
		"{root}", l.Root,
		"{include}", l.Include,
		"{lib}", l.Lib,
		"{bin}", l.Bin,
	)

	var units []Unit
	for i, ou := range file.Units {
		if ou.Name == "" {
			return nil, fmt.Errorf("%s: unit %d has no name", path, i+1)
		}
		system := BuildSystem(ou.Build)
		switch system {
		case "":
			system = BuildCMake
		case BuildCMake, BuildAutotools:
		default:
			return nil, fmt.Errorf("%s: unit %s: unknown build system %q", path, ou.Name, ou.Build)
		}
		if skipped(ou.Skip, t.OS) {
			debugf("Skipping %s on %s\n", ou.Name, t.OS)
			continue
		}

		u := Unit{Name: ou.Name, URL: ou.URL, Dir: ou.Dir, System: system}
		for _, a := range ou.Args {
			u.Args = append(u.Args, expand.Replace(a))
		}
		units = append(units, u)
	}
	return units, nil
}

func skipped(tags []string, os string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, os) {
			return true
		}
	}
	return false
}
