package nekodeps

import (
	"path/filepath"
	"strings"
)

// BuildSystem selects the pipeline variant used for a unit.
type BuildSystem string

const (
	BuildCMake     BuildSystem = "cmake"
	BuildAutotools BuildSystem = "autotools"
)

// Unit is one third-party library to fetch, build and install.
type Unit struct {
	Name   string
	URL    string      // empty for sources checked in under Deps/
	Dir    string      // source directory when it differs from Name
	System BuildSystem // defaults to cmake
	Args   []string    // appended to the base toolchain flags
}

// Local reports whether the unit's sources are checked in.
func (u Unit) Local() bool { return u.URL == "" }

// SourceDir is the directory name the sources live in.
func (u Unit) SourceDir() string {
	if u.Dir != "" {
		return u.Dir
	}
	return u.Name
}

// archiveExts are the archive suffixes recognised in a unit URL.
var archiveExts = []string{".tar.gz", ".tgz", ".tar.xz", ".tar.zst", ".tar.bz2", ".tar", ".zip"}

// Archive is the file name the downloaded sources are saved as:
// <name>.tar.gz unless the URL names another archive type.
func (u Unit) Archive() string {
	for _, ext := range archiveExts {
		if strings.HasSuffix(u.URL, ext) {
			return u.Name + ext
		}
	}
	return u.Name + ".tar.gz"
}

// Units returns the dependency units in build order. Order is the
// dependency graph: libpng and freetype point at the zlib-ng and libpng
// artifacts already installed in l.
func Units(l OutputLayout) []Unit {
	return []Unit{
		// Libraries included in the source tree
		{Name: "Lua"},
		{Name: "PhysFS"},

		{
			Name: "zlib-ng-2.0.7",
			URL:  "https://github.com/zlib-ng/zlib-ng/archive/refs/tags/2.0.7.tar.gz",
			Args: []string{
				"-DZLIB_COMPAT:BOOL=ON",
				"-DBUILD_SHARED_LIBS:BOOL=OFF",
				"-DZLIB_ENABLE_TESTS:BOOL=OFF",
			},
		},
		{
			Name: "libpng-1.6.39",
			URL:  "https://sourceforge.net/projects/libpng/files/libpng16/1.6.39/libpng-1.6.39.tar.gz/download",
			Args: []string{
				"-DPNG_BUILD_ZLIB=" + l.Root,
				"-DZLIB_INCLUDE_DIR:PATH=" + l.Include,
				"-DZLIB_LIBRARY:FILEPATH=" + filepath.Join(l.Lib, "libz.a"),
				"-DPNG_SHARED:BOOL=OFF",
				"-DPNG_EXECUTABLES:BOOL=OFF",
				"-DPNG_TESTS:BOOL=OFF",
			},
		},
		{
			Name: "bullet3-3.25",
			URL:  "https://github.com/bulletphysics/bullet3/archive/refs/tags/3.25.tar.gz",
			Args: []string{
				"-DUSE_GRAPHICAL_BENCHMARK=OFF",
				"-DUSE_OPENVR:BOOL=OFF",
				"-DUSE_GLUT:BOOL=OFF",
				"-DBUILD_UNIT_TESTS:BOOL=OFF",
				"-DBUILD_SHARED_LIBS:BOOL=OFF",
				"-DBUILD_PYBULLET:BOOL=OFF",
				"-DBUILD_OPENGL3_DEMOS:BOOL=OFF",
				"-DBUILD_EXTRAS:BOOL=OFF",
				"-DBUILD_ENET:BOOL=OFF",
				"-DBUILD_CPU_DEMOS:BOOL=OFF",
				"-DBUILD_CLSOCKET:BOOL=OFF",
				"-DBUILD_BULLET_ROBOTICS_EXTRA:BOOL=OFF",
				"-DBUILD_BULLET_ROBOTICS_GUI_EXTRA:BOOL=OFF",
				"-DBUILD_BULLET2_DEMOS:BOOL=OFF",
				"-DINSTALL_LIBS:BOOL=ON",
			},
		},
		{
			Name: "libjpeg-turbo-2.1.91",
			URL:  "https://github.com/libjpeg-turbo/libjpeg-turbo/archive/refs/tags/2.1.91.tar.gz",
			Args: []string{"-DENABLE_SHARED:BOOL=OFF"},
		},
		{
			Name: "libogg-1.3.5",
			URL:  "https://github.com/xiph/ogg/releases/download/v1.3.5/libogg-1.3.5.tar.gz",
			Args: []string{
				"-DINSTALL_DOCS:BOOL=OFF",
				"-DBUILD_TESTING:BOOL=OFF",
			},
		},
		{
			Name: "libvorbis-1.3.7",
			URL:  "https://github.com/xiph/vorbis/releases/download/v1.3.7/libvorbis-1.3.7.tar.gz",
		},
		{
			Name: "flac-1.4.2",
			URL:  "https://github.com/xiph/flac/archive/refs/tags/1.4.2.tar.gz",
			Args: []string{
				"-DBUILD_CXXLIBS:BOOL=OFF",
				"-DBUILD_PROGRAMS:BOOL=OFF",
				"-DBUILD_EXAMPLES:BOOL=OFF",
				"-DBUILD_TESTING:BOOL=OFF",
				"-DBUILD_DOCS:BOOL=OFF",
				"-DINSTALL_MANPAGES:BOOL=OFF",
				"-DINSTALL_PKGCONFIG_MODULES:BOOL=OFF",
				"-DWITH_OGG:BOOL=ON",
				"-DBUILD_SHARED_LIBS:BOOL=OFF",
			},
		},
		// TODO: build bzip2 and harfbuzz ahead of freetype
		{
			Name: "freetype-2.13.0",
			URL:  "https://download.savannah.gnu.org/releases/freetype/freetype-2.13.0.tar.gz",
			Args: []string{
				"-DZLIB_INCLUDE_DIR:PATH=" + l.Include,
				"-DZLIB_LIBRARY_RELEASE:FILEPATH=" + filepath.Join(l.Lib, "libz.a"),
				"-DPNG_PNG_INCLUDE_DIR=" + l.Include,
				"-DPNG_LIBRARY_RELEASE:FILEPATH=" + filepath.Join(l.Lib, "libpng.a"),
			},
		},
		{
			Name: "meshoptimizer-0.19",
			URL:  "https://github.com/zeux/meshoptimizer/archive/refs/tags/v0.19.tar.gz",
		},
	}
}

// UnitsFor returns the units built for t, with platform skips applied.
func UnitsFor(t Target, l OutputLayout) []Unit {
	p := platformFor(t.OS)
	var units []Unit
	for _, u := range Units(l) {
		if p.skips(u.Name) {
			continue
		}
		units = append(units, u)
	}
	return units
}
