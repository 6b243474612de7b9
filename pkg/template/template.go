// pkg/template/template.go
package template

import (
	"errors"
	"path"
	"strconv"
	"strings"
)

var (
	// ErrInvalid indicates the template failed schema validation
	ErrInvalid = errors.New("invalid template")

	// ErrUnknownArch indicates an architecture name outside the supported set
	ErrUnknownArch = errors.New("unknown architecture")
)

// Template is the declarative recipe for one package
type Template struct {
	PkgName    string `yaml:"pkgname"`
	PkgVer     string `yaml:"pkgver"`
	PkgRel     int    `yaml:"pkgrel"`
	PkgDesc    string `yaml:"pkgdesc,omitempty"`
	Maintainer string `yaml:"maintainer,omitempty"`
	License    string `yaml:"license"`
	URL        string `yaml:"url,omitempty"`
	Source     string `yaml:"source"`
	SHA256     string `yaml:"sha256"`
	BuildStyle string `yaml:"build_style,omitempty"`

	ConfigureArgs   []string `yaml:"configure_args,omitempty"`
	MakeBuildArgs   []string `yaml:"make_build_args,omitempty"`
	HostMakeDepends []string `yaml:"hostmakedepends,omitempty"`
	MakeDepends     []string `yaml:"makedepends,omitempty"`
	Depends         []string `yaml:"depends,omitempty"`
	Options         Options  `yaml:"options,omitempty"`

	// Arch is the architecture conditional, evaluated by Resolve
	Arch []ArchArm `yaml:"arch,omitempty"`

	// Hooks maps a stage name to a shell snippet. Compiled-in recipes
	// register Go hooks instead.
	Hooks map[string]string `yaml:"hooks,omitempty"`

	// File is the path the template was loaded from, if any
	File string `yaml:"-"`
}

// FullVersion returns pkgver-rpkgrel
func (t *Template) FullVersion() string {
	return t.PkgVer + "-r" + strconv.Itoa(t.PkgRel)
}

// SourceURL expands the {url}, {pkgname} and {pkgver} placeholders in source
func (t *Template) SourceURL() string {
	r := strings.NewReplacer(
		"{url}", t.URL,
		"{pkgname}", t.PkgName,
		"{pkgver}", t.PkgVer,
	)
	return r.Replace(t.Source)
}

// Distfile is the file name the fetched source is stored under
func (t *Template) Distfile() string {
	base := path.Base(t.SourceURL())
	if strings.HasPrefix(base, t.PkgName) {
		return base
	}
	return t.PkgName + "-" + base
}

// Clone returns a deep copy of the template
func (t *Template) Clone() *Template {
	c := *t
	c.ConfigureArgs = cloneList(t.ConfigureArgs)
	c.MakeBuildArgs = cloneList(t.MakeBuildArgs)
	c.HostMakeDepends = cloneList(t.HostMakeDepends)
	c.MakeDepends = cloneList(t.MakeDepends)
	c.Depends = cloneList(t.Depends)
	c.Options = Options(cloneList(t.Options))

	if t.Arch != nil {
		c.Arch = make([]ArchArm, len(t.Arch))
		for i, arm := range t.Arch {
			c.Arch[i] = arm.clone()
		}
	}
	if t.Hooks != nil {
		c.Hooks = make(map[string]string, len(t.Hooks))
		for k, v := range t.Hooks {
			c.Hooks[k] = v
		}
	}
	return &c
}

func cloneList(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
