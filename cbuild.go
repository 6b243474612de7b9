// cbuild.go
package cbuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/arc-language/cbuild/pkg/buildstyle"
	"github.com/arc-language/cbuild/pkg/config"
	"github.com/arc-language/cbuild/pkg/fetch"
	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/index"
	"github.com/arc-language/cbuild/pkg/journal"
	"github.com/arc-language/cbuild/pkg/profile"
	"github.com/arc-language/cbuild/pkg/recipe"
	"github.com/arc-language/cbuild/pkg/template"
)

// Builder runs templates through the build pipeline
type Builder struct {
	config   *config.Config
	recipes  *recipe.Registry // compiled-in templates
	index    *recipe.Registry // templates from the synced tree
	profiles *profile.Set
	fetcher  *fetch.Fetcher
	journal  *journal.Journal
	runner   hook.Runner
	client   *fetch.Client
	logger   *log.Logger
	arch     template.Arch
	host     template.Arch
	stdout   io.Writer
	stderr   io.Writer
}

// Option configures a Builder
type Option func(*Builder)

// WithRegistry replaces the compiled-in registry
func WithRegistry(r *recipe.Registry) Option {
	return func(b *Builder) { b.recipes = r }
}

// WithRunner sets the runner external commands go through
func WithRunner(r hook.Runner) Option {
	return func(b *Builder) { b.runner = r }
}

// WithClient sets the HTTP client sources are fetched with
func WithClient(c *fetch.Client) Option {
	return func(b *Builder) { b.client = c }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithOutput sets where build command output goes
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Builder) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithHostArch overrides the detected host architecture
func WithHostArch(arch template.Arch) Option {
	return func(b *Builder) { b.host = arch }
}

// NewBuilder creates a builder from cfg. Templates from cfg.TemplatesDir
// that fail to load are skipped with a warning.
func NewBuilder(cfg *config.Config, opts ...Option) (*Builder, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	b := &Builder{
		config:  cfg,
		recipes: recipe.Default,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		if cfg.Debug {
			b.logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.DebugLevel})
		} else {
			b.logger = log.New(io.Discard)
		}
	}

	if b.host == "" {
		host, err := profile.HostArch()
		if err != nil {
			return nil, err
		}
		b.host = host
	}

	b.arch = b.host
	if cfg.Arch != "" {
		arch, err := template.ParseArch(cfg.Arch)
		if err != nil {
			return nil, err
		}
		b.arch = arch
	}

	profiles, err := profile.LoadDir(cfg.ProfilesDir)
	if err != nil {
		return nil, err
	}
	b.profiles = profiles

	idx, err := index.Load(cfg.TemplatesDir)
	if err != nil {
		b.logger.Warn("skipping broken templates", "err", err)
	}
	b.index = idx

	b.fetcher = fetch.New(cfg.SourcesDir, b.client, b.logger.WithPrefix("fetch"))

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return nil, err
		}
		b.journal = j
	}

	return b, nil
}

// Close releases the journal
func (b *Builder) Close() error {
	if b.journal == nil {
		return nil
	}
	return b.journal.Close()
}

// Arch returns the architecture builds target
func (b *Builder) Arch() template.Arch {
	return b.arch
}

// Journal returns the build journal, or nil when disabled
func (b *Builder) Journal() *journal.Journal {
	return b.journal
}

// Lookup finds name among the compiled-in templates, then the synced tree
func (b *Builder) Lookup(name string) (*recipe.Recipe, error) {
	rc, err := b.recipes.Get(name)
	if err == nil || b.index == nil {
		return rc, err
	}
	return b.index.Get(name)
}

// Names returns every known template name, sorted
func (b *Builder) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, reg := range []*recipe.Registry{b.recipes, b.index} {
		if reg == nil {
			continue
		}
		for _, name := range reg.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Lint validates the named template
func (b *Builder) Lint(name string) error {
	rc, err := b.Lookup(name)
	if err != nil {
		return err
	}
	return rc.Template.Validate()
}

// Plan is a template resolved for one architecture
type Plan struct {
	Template *template.Template // arch conditional applied
	Hooks    hook.Set
	Profile  *profile.Profile
	Style    buildstyle.Style
	Cross    bool
}

// Plan validates name and resolves it for arch. An empty arch selects
// the builder's target.
func (b *Builder) Plan(name string, arch template.Arch) (*Plan, error) {
	if arch == "" {
		arch = b.arch
	}

	rc, err := b.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := rc.Template.Validate(); err != nil {
		return nil, err
	}

	t, err := rc.Template.Resolve(arch)
	if err != nil {
		return nil, err
	}
	p, err := b.profiles.Get(arch)
	if err != nil {
		return nil, err
	}
	style, err := buildstyle.Get(t.BuildStyle)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Template: t,
		Hooks:    rc.Hooks,
		Profile:  p,
		Style:    style,
		Cross:    p.Cross(b.host),
	}, nil
}

// Fetch downloads and verifies the source of name
func (b *Builder) Fetch(ctx context.Context, name string) (string, error) {
	plan, err := b.Plan(name, "")
	if err != nil {
		return "", &Error{Op: "plan", Package: name, Err: err}
	}
	path, err := b.fetcher.Fetch(ctx, plan.Template)
	if err != nil {
		return "", &Error{Op: "fetch", Package: name, Err: err}
	}
	return path, nil
}

// Result describes a finished build
type Result struct {
	Package  string
	Version  string
	Arch     template.Arch
	DestDir  string
	Duration time.Duration
}

// Build runs name through the whole pipeline and records the outcome in
// the journal
func (b *Builder) Build(ctx context.Context, name string) (*Result, error) {
	start := time.Now()

	plan, err := b.Plan(name, "")
	if err != nil {
		err = &Error{Op: "plan", Package: name, Err: err}
		b.record(ctx, name, "", start, err)
		return nil, err
	}

	res, err := b.build(ctx, plan)
	b.record(ctx, name, plan.Template.FullVersion(), start, err)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// BuildAll builds names concurrently, at most cfg.Jobs at a time. A name
// given twice is built once. A failed build does not stop the others;
// every failure is returned.
func (b *Builder) BuildAll(ctx context.Context, names []string) ([]*Result, error) {
	names = unique(names)

	var g errgroup.Group
	g.SetLimit(max(b.config.Jobs, 1))

	var (
		mu      sync.Mutex
		results []*Result
		errs    = make([]error, len(names))
	)
	for i, name := range names {
		g.Go(func() error {
			res, err := b.Build(ctx, name)
			if err != nil {
				errs[i] = err
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Package < results[j].Package })
	return results, errors.Join(errs...)
}

// unique drops repeated names, keeping first-seen order
func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

type step struct {
	op  string
	run func(context.Context, *hook.Context) error
}

func (b *Builder) build(ctx context.Context, plan *Plan) (*Result, error) {
	t := plan.Template
	name := t.PkgName
	logger := b.logger.WithPrefix("build").With("pkg", name)

	if plan.Cross && !t.Options.Enabled(template.OptCross) {
		return nil, &Error{Op: "build", Package: name, Err: fmt.Errorf("%w: %s from %s", ErrCrossUnsupported, plan.Profile.Arch, b.host)}
	}

	workDir := filepath.Join(b.config.BuildRoot, name+"-"+t.PkgVer)
	if err := os.RemoveAll(workDir); err != nil {
		return nil, &Error{Op: "prepare", Package: name, Err: err}
	}
	destDir := filepath.Join(workDir, "destdir")
	makeDir := filepath.Join(workDir, "build")
	for _, dir := range []string{destDir, makeDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &Error{Op: "prepare", Package: name, Err: err}
		}
	}

	logger.Info("fetching", "version", t.FullVersion(), "arch", plan.Profile.Arch)
	archive, err := b.fetcher.Fetch(ctx, t)
	if err != nil {
		return nil, &Error{Op: "fetch", Package: name, Err: err}
	}
	wrksrc, err := fetch.Extract(archive, filepath.Join(workDir, "src"))
	if err != nil {
		return nil, &Error{Op: "extract", Package: name, Err: err}
	}

	bc := &hook.Context{
		Template: t,
		Profile:  plan.Profile,
		Cwd:      wrksrc,
		MakeDir:  makeDir,
		DestDir:  destDir,
		Jobs:     b.config.Jobs,
		Runner:   b.runner,
		Logger:   logger,
		Stdout:   b.stdout,
		Stderr:   b.stderr,
	}

	stage := func(s hook.Stage) step {
		return step{"hook", func(ctx context.Context, bc *hook.Context) error {
			return plan.Hooks.Run(ctx, s, bc)
		}}
	}
	steps := []step{
		{"configure", plan.Style.Configure},
		stage(hook.PreBuild),
		{"build", plan.Style.Build},
		stage(hook.PostBuild),
	}
	switch {
	case !t.Options.Enabled(template.OptCheck):
		logger.Debug("skipping check", "reason", "!check")
	case plan.Cross:
		logger.Debug("skipping check", "reason", "cross build")
	default:
		steps = append(steps, step{"check", plan.Style.Check})
	}
	steps = append(steps,
		stage(hook.PreInstall),
		step{"install", plan.Style.Install},
		stage(hook.PostInstall),
	)

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: s.op, Package: name, Err: err}
		}
		logger.Debug("step", "op", s.op)
		if err := s.run(ctx, bc); err != nil {
			return nil, &Error{Op: s.op, Package: name, Err: err}
		}
	}

	logger.Info("built", "destdir", destDir)
	return &Result{
		Package: name,
		Version: t.FullVersion(),
		Arch:    plan.Profile.Arch,
		DestDir: destDir,
	}, nil
}

func (b *Builder) record(ctx context.Context, name, version string, start time.Time, buildErr error) {
	if b.journal == nil {
		return
	}

	e := &journal.Entry{
		Package:  name,
		Version:  version,
		Arch:     string(b.arch),
		Status:   journal.StatusOK,
		Started:  start,
		Duration: time.Since(start),
	}
	if buildErr != nil {
		e.Status = journal.StatusFailed
		e.Error = buildErr.Error()
	}

	// the build context may be cancelled; the outcome is still recorded
	if err := b.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		b.logger.Warn("journal", "err", err)
	}
}
