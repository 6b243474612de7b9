// pkg/template/options.go
package template

import "strings"

// Options is the template's feature flag list. "!name" turns off a step
// that runs by default; a bare "name" turns on one that does not.
type Options []string

// Common option names
const (
	OptCheck    = "check"
	OptCross    = "cross"
	OptStrip    = "strip"
	OptParallel = "parallel"
	OptLTO      = "lto"
)

var optionDefaults = map[string]bool{
	OptCheck:    true,
	OptCross:    true,
	OptStrip:    true,
	OptParallel: true,
	OptLTO:      false,
}

// Enabled reports whether the named option is on. Later entries override
// earlier ones.
func (o Options) Enabled(name string) bool {
	on := optionDefaults[name]
	for _, opt := range o {
		switch {
		case opt == name:
			on = true
		case strings.HasPrefix(opt, "!") && opt[1:] == name:
			on = false
		}
	}
	return on
}

// KnownOption reports whether name, with or without the "!" prefix, is
// part of the option vocabulary
func KnownOption(name string) bool {
	_, ok := optionDefaults[strings.TrimPrefix(name, "!")]
	return ok
}
