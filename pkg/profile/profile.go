// pkg/profile/profile.go
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/cbuild/pkg/template"
)

// Profile describes how to build for one target architecture
type Profile struct {
	Arch     template.Arch `toml:"arch"`
	Triplet  string        `toml:"triplet"`
	Endian   string        `toml:"endian"`
	WordSize int           `toml:"wordsize"`
	GoArch   string        `toml:"goarch"`
	GoArm    string        `toml:"goarm,omitempty"`
	CFlags   []string      `toml:"cflags"`
	LDFlags  []string      `toml:"ldflags"`
}

// file is the on-disk layout of <arch>.toml
type file struct {
	Profile Profile `toml:"profile"`
}

var builtin = map[template.Arch]Profile{
	template.ArchAarch64:     {Triplet: "aarch64-chimera-linux-musl", Endian: "little", WordSize: 64, GoArch: "arm64"},
	template.ArchArmv7:       {Triplet: "armv7-chimera-linux-musleabihf", Endian: "little", WordSize: 32, GoArch: "arm", GoArm: "7"},
	template.ArchLoongarch64: {Triplet: "loongarch64-chimera-linux-musl", Endian: "little", WordSize: 64, GoArch: "loong64"},
	template.ArchPpc:         {Triplet: "powerpc-chimera-linux-musl", Endian: "big", WordSize: 32, GoArch: "ppc"},
	template.ArchPpc64:       {Triplet: "powerpc64-chimera-linux-musl", Endian: "big", WordSize: 64, GoArch: "ppc64"},
	template.ArchPpc64le:     {Triplet: "powerpc64le-chimera-linux-musl", Endian: "little", WordSize: 64, GoArch: "ppc64le"},
	template.ArchRiscv64:     {Triplet: "riscv64-chimera-linux-musl", Endian: "little", WordSize: 64, GoArch: "riscv64"},
	template.ArchX86_64:      {Triplet: "x86_64-chimera-linux-musl", Endian: "little", WordSize: 64, GoArch: "amd64"},
}

// Set holds the profiles known to a build
type Set struct {
	profiles map[template.Arch]*Profile
}

// Builtin returns a Set containing the default profile of every known arch
func Builtin() *Set {
	s := &Set{profiles: make(map[template.Arch]*Profile, len(builtin))}
	for arch, p := range builtin {
		p := p
		p.Arch = arch
		p.CFlags = []string{"-O2", "-pipe"}
		s.profiles[arch] = &p
	}
	return s
}

// LoadDir returns the builtin profiles overridden by every <arch>.toml
// in dir. A missing directory is not an error.
func LoadDir(dir string) (*Set, error) {
	s := Builtin()
	if dir == "" {
		return s, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		p, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		s.profiles[p.Arch] = p
	}
	return s, nil
}

func loadFile(path string) (*Profile, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("profile: failed to parse '%s': %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".toml")
	if f.Profile.Arch == "" {
		f.Profile.Arch = template.Arch(name)
	}
	if _, err := template.ParseArch(string(f.Profile.Arch)); err != nil {
		return nil, fmt.Errorf("profile '%s': %w", path, err)
	}
	if f.Profile.Triplet == "" {
		return nil, fmt.Errorf("profile '%s': missing triplet", path)
	}
	return &f.Profile, nil
}

// Get returns the profile for arch
func (s *Set) Get(arch template.Arch) (*Profile, error) {
	p, ok := s.profiles[arch]
	if !ok {
		return nil, fmt.Errorf("%w: no profile for %q", template.ErrUnknownArch, arch)
	}
	return p, nil
}

// Arches returns the architectures in the set, sorted
func (s *Set) Arches() []template.Arch {
	out := make([]template.Arch, 0, len(s.profiles))
	for a := range s.profiles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HostArch maps the running GOARCH onto a profile architecture
func HostArch() (template.Arch, error) {
	return archForGo(runtime.GOARCH)
}

func archForGo(goarch string) (template.Arch, error) {
	for arch, p := range builtin {
		if p.GoArch == goarch {
			return arch, nil
		}
	}
	return "", fmt.Errorf("%w: GOARCH %s", template.ErrUnknownArch, goarch)
}

// Cross reports whether building for p from host is a cross build
func (p *Profile) Cross(host template.Arch) bool {
	return p.Arch != host
}

// Env returns the environment variables exported to build commands
func (p *Profile) Env() []string {
	env := []string{
		"CBUILD_TARGET_MACHINE=" + string(p.Arch),
		"CBUILD_TARGET_TRIPLET=" + p.Triplet,
		"GOARCH=" + p.GoArch,
		"CFLAGS=" + strings.Join(p.CFlags, " "),
		"CXXFLAGS=" + strings.Join(p.CFlags, " "),
		"LDFLAGS=" + strings.Join(p.LDFlags, " "),
	}
	if p.GoArm != "" {
		env = append(env, "GOARM="+p.GoArm)
	}
	return env
}
