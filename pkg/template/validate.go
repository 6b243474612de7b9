// pkg/template/validate.go
package template

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// ValidationError lists every problem found in one template
type ValidationError struct {
	File     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Problems[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(e.Problems, "\n  "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate checks the template against the schema, the option vocabulary,
// the architecture conditional and the dependency lists of every
// architecture it can be resolved for.
func (t *Template) Validate() error {
	var problems []string

	schemaProblems, err := checkSchema(t.document())
	if err != nil {
		return err
	}
	problems = append(problems, schemaProblems...)

	for _, opt := range t.Options {
		if !KnownOption(opt) {
			problems = append(problems, fmt.Sprintf("options: unknown option %q", opt))
		}
	}

	for stage := range t.Hooks {
		if !validStage(stage) {
			problems = append(problems, fmt.Sprintf("hooks: unknown stage %q", stage))
		}
	}

	problems = append(problems, t.checkArms()...)

	// deltas can introduce conflicts, so check each resolution
	reported := make(map[string]bool)
	for _, arch := range KnownArches {
		r, err := t.Resolve(arch)
		if err != nil {
			return err
		}
		for _, p := range r.checkDepLists() {
			if !reported[p] {
				reported[p] = true
				problems = append(problems, p)
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{File: t.displayName(), Problems: problems}
	}
	return nil
}

func (t *Template) displayName() string {
	if t.File != "" {
		return t.File
	}
	if t.PkgName != "" {
		return t.PkgName
	}
	return "<template>"
}

func validStage(s string) bool {
	switch s {
	case "pre_build", "post_build", "pre_install", "post_install":
		return true
	}
	return false
}

// document renders the template as the value unified with #Template.
// Empty optional fields are left out so the schema only sees what the
// template actually declares.
func (t *Template) document() map[string]any {
	doc := map[string]any{
		"pkgname": t.PkgName,
		"pkgver":  t.PkgVer,
		"pkgrel":  t.PkgRel,
		"license": t.License,
		"source":  t.Source,
		"sha256":  t.SHA256,
	}
	setString(doc, "pkgdesc", t.PkgDesc)
	setString(doc, "maintainer", t.Maintainer)
	setString(doc, "url", t.URL)
	setString(doc, "build_style", t.BuildStyle)
	setList(doc, "configure_args", t.ConfigureArgs)
	setList(doc, "make_build_args", t.MakeBuildArgs)
	setList(doc, "hostmakedepends", t.HostMakeDepends)
	setList(doc, "makedepends", t.MakeDepends)
	setList(doc, "depends", t.Depends)
	setList(doc, "options", t.Options)

	if len(t.Arch) > 0 {
		arms := make([]any, 0, len(t.Arch))
		for _, arm := range t.Arch {
			m := map[string]any{}
			if len(arm.Match) > 0 {
				match := make([]string, len(arm.Match))
				for i, a := range arm.Match {
					match[i] = string(a)
				}
				m["match"] = match
			}
			if arm.Default {
				m["default"] = true
			}
			setList(m, "configure_args", arm.ConfigureArgs)
			setList(m, "hostmakedepends", arm.HostMakeDepends)
			setList(m, "makedepends", arm.MakeDepends)
			setList(m, "depends", arm.Depends)
			arms = append(arms, m)
		}
		doc["arch"] = arms
	}

	if len(t.Hooks) > 0 {
		hooks := make(map[string]any, len(t.Hooks))
		for k, v := range t.Hooks {
			if validStage(k) {
				hooks[k] = v
			}
		}
		doc["hooks"] = hooks
	}
	return doc
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func setList[S ~[]string](m map[string]any, key string, value S) {
	if len(value) > 0 {
		m[key] = []string(value)
	}
}

func checkSchema(doc map[string]any) ([]string, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("internal error: compiling template schema: %w", schema.Err())
	}
	root := schema.LookupPath(cue.ParsePath("#Template"))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: #Template not found: %w", root.Err())
	}

	value := ctx.Encode(doc)
	if value.Err() != nil {
		return []string{value.Err().Error()}, nil
	}

	err := root.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil, nil
	}

	var problems []string
	for _, e := range cueerrors.Errors(err) {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			problems = append(problems, msg)
		}
	}
	if len(problems) == 0 {
		problems = append(problems, err.Error())
	}
	return problems, nil
}

// formatPath turns ["arch", "0", "match"] into arch[0].match
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// checkDepLists reports packages listed twice with different constraints
// in the same list
func (t *Template) checkDepLists() []string {
	var problems []string
	lists := []struct {
		name string
		deps []string
	}{
		{"hostmakedepends", t.HostMakeDepends},
		{"makedepends", t.MakeDepends},
		{"depends", t.Depends},
	}
	for _, l := range lists {
		seen := make(map[string]string)
		for _, dep := range l.deps {
			name, constraint := SplitDep(dep)
			prev, ok := seen[name]
			if !ok {
				seen[name] = constraint
				continue
			}
			if prev != constraint {
				problems = append(problems, fmt.Sprintf("%s: %s listed with conflicting versions %q and %q", l.name, name, prev, constraint))
			}
		}
	}
	return problems
}

// SplitDep separates "foo>=1.2" into its package name and constraint
func SplitDep(dep string) (name, constraint string) {
	if idx := strings.IndexAny(dep, "<>=~"); idx != -1 {
		return dep[:idx], dep[idx:]
	}
	return dep, ""
}
