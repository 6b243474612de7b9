// pkg/template/arch.go
package template

import (
	"fmt"
)

// Arch is a target CPU architecture as named by build profiles
type Arch string

const (
	ArchAarch64     Arch = "aarch64"
	ArchArmv7       Arch = "armv7"
	ArchLoongarch64 Arch = "loongarch64"
	ArchPpc         Arch = "ppc"
	ArchPpc64       Arch = "ppc64"
	ArchPpc64le     Arch = "ppc64le"
	ArchRiscv64     Arch = "riscv64"
	ArchX86_64      Arch = "x86_64"
)

// KnownArches lists every architecture a template can be planned for
var KnownArches = []Arch{
	ArchAarch64,
	ArchArmv7,
	ArchLoongarch64,
	ArchPpc,
	ArchPpc64,
	ArchPpc64le,
	ArchRiscv64,
	ArchX86_64,
}

// ParseArch converts a profile name into an Arch
func ParseArch(s string) (Arch, error) {
	for _, a := range KnownArches {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArch, s)
}

// Delta is the incremental configuration an arch arm contributes
type Delta struct {
	ConfigureArgs   []string
	HostMakeDepends []string
	MakeDepends     []string
	Depends         []string
}

// ArchArm is one branch of the architecture conditional. An arm either
// lists the architectures it matches or is the default arm.
type ArchArm struct {
	Match           []Arch   `yaml:"match,omitempty"`
	Default         bool     `yaml:"default,omitempty"`
	ConfigureArgs   []string `yaml:"configure_args,omitempty"`
	HostMakeDepends []string `yaml:"hostmakedepends,omitempty"`
	MakeDepends     []string `yaml:"makedepends,omitempty"`
	Depends         []string `yaml:"depends,omitempty"`
}

func (a ArchArm) matches(arch Arch) bool {
	for _, m := range a.Match {
		if m == arch {
			return true
		}
	}
	return false
}

func (a ArchArm) delta() Delta {
	return Delta{
		ConfigureArgs:   cloneList(a.ConfigureArgs),
		HostMakeDepends: cloneList(a.HostMakeDepends),
		MakeDepends:     cloneList(a.MakeDepends),
		Depends:         cloneList(a.Depends),
	}
}

func (a ArchArm) clone() ArchArm {
	c := a
	if a.Match != nil {
		c.Match = make([]Arch, len(a.Match))
		copy(c.Match, a.Match)
	}
	c.ConfigureArgs = cloneList(a.ConfigureArgs)
	c.HostMakeDepends = cloneList(a.HostMakeDepends)
	c.MakeDepends = cloneList(a.MakeDepends)
	c.Depends = cloneList(a.Depends)
	return c
}

// ArchDelta returns the delta selected for arch. The first arm listing
// arch wins; otherwise the default arm applies. A template without arms
// yields an empty delta.
func (t *Template) ArchDelta(arch Arch) Delta {
	for _, arm := range t.Arch {
		if arm.matches(arch) {
			return arm.delta()
		}
	}
	for _, arm := range t.Arch {
		if arm.Default {
			return arm.delta()
		}
	}
	return Delta{}
}

// Resolve returns a copy of the template with the arch conditional
// applied. The receiver is left untouched.
func (t *Template) Resolve(arch Arch) (*Template, error) {
	if _, err := ParseArch(string(arch)); err != nil {
		return nil, err
	}

	d := t.ArchDelta(arch)
	r := t.Clone()
	r.Arch = nil
	r.ConfigureArgs = append(r.ConfigureArgs, d.ConfigureArgs...)
	r.HostMakeDepends = append(r.HostMakeDepends, d.HostMakeDepends...)
	r.MakeDepends = append(r.MakeDepends, d.MakeDepends...)
	r.Depends = append(r.Depends, d.Depends...)
	return r, nil
}

// checkArms enforces that the conditional is exhaustive and unambiguous
func (t *Template) checkArms() []string {
	if len(t.Arch) == 0 {
		return nil
	}

	var problems []string
	seen := make(map[Arch]int)
	defaults := 0
	for i, arm := range t.Arch {
		if arm.Default {
			defaults++
			if len(arm.Match) > 0 {
				problems = append(problems, fmt.Sprintf("arch[%d]: default arm cannot list architectures", i))
			}
			continue
		}
		if len(arm.Match) == 0 {
			problems = append(problems, fmt.Sprintf("arch[%d]: arm matches no architecture", i))
		}
		for _, a := range arm.Match {
			if prev, ok := seen[a]; ok {
				problems = append(problems, fmt.Sprintf("arch[%d]: %s already matched by arch[%d]", i, a, prev))
				continue
			}
			seen[a] = i
		}
	}

	switch {
	case defaults == 0 && len(seen) < len(KnownArches):
		problems = append(problems, "arch: no default arm and not every architecture is matched")
	case defaults > 1:
		problems = append(problems, fmt.Sprintf("arch: %d default arms", defaults))
	}
	return problems
}
