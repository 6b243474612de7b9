package hook

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arc-language/cbuild/pkg/template"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	root := t.TempDir()
	cwd := filepath.Join(root, "src")
	if err := os.MkdirAll(cwd, 0755); err != nil {
		t.Fatal(err)
	}
	return &Context{
		Template: &template.Template{PkgName: "sbctl", PkgVer: "0.12"},
		Cwd:      cwd,
		MakeDir:  filepath.Join(cwd, "build"),
		DestDir:  filepath.Join(root, "destdir"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// tree returns every regular file under dir with its content
func tree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		data, err := os.ReadFile(path)
		out[filepath.ToSlash(rel)] = string(data)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

type recordingRunner struct {
	cmds []*Command
	err  error
}

func (r *recordingRunner) Run(ctx context.Context, c *Command) error {
	r.cmds = append(r.cmds, c)
	return r.err
}

func TestInstallHelpers(t *testing.T) {
	bc := newTestContext(t)
	writeFile(t, filepath.Join(bc.Cwd, "LICENSE"), "MIT")
	writeFile(t, filepath.Join(bc.Cwd, "docs/sbctl.8"), ".TH SBCTL 8")
	writeFile(t, filepath.Join(bc.Cwd, "sbctl.bash"), "bash")
	writeFile(t, filepath.Join(bc.Cwd, "sbctl.zsh"), "zsh")
	writeFile(t, filepath.Join(bc.Cwd, "sbctl.fish"), "fish")

	install := func() {
		steps := []error{
			bc.InstallMan("docs/sbctl.8"),
			bc.InstallCompletion("sbctl.bash", "bash"),
			bc.InstallCompletion("sbctl.zsh", "zsh"),
			bc.InstallCompletion("sbctl.fish", "fish"),
			bc.InstallLicense("LICENSE"),
		}
		for _, err := range steps {
			if err != nil {
				t.Fatalf("install error = %v", err)
			}
		}
	}

	want := map[string]string{
		"usr/share/man/man8/sbctl.8":                      ".TH SBCTL 8",
		"usr/share/bash-completion/completions/sbctl":     "bash",
		"usr/share/zsh/site-functions/_sbctl":             "zsh",
		"usr/share/fish/vendor_completions.d/sbctl.fish":  "fish",
		"usr/share/licenses/sbctl/LICENSE":                "MIT",
	}

	install()
	if diff := cmp.Diff(want, tree(t, bc.DestDir)); diff != "" {
		t.Fatalf("install tree mismatch (-want +got):\n%s", diff)
	}

	install()
	if diff := cmp.Diff(want, tree(t, bc.DestDir)); diff != "" {
		t.Errorf("second install changed the tree (-want +got):\n%s", diff)
	}

	info, err := os.Stat(filepath.Join(bc.DestDir, "usr/share/licenses/sbctl/LICENSE"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("license mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestInstallBinIsExecutable(t *testing.T) {
	bc := newTestContext(t)
	writeFile(t, filepath.Join(bc.MakeDir, "sbctl"), "#!/bin/sh\n")

	if err := bc.InstallBin(filepath.Join(bc.MakeDir, "sbctl")); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(bc.DestDir, "usr/bin/sbctl"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestInstallMissingFile(t *testing.T) {
	bc := newTestContext(t)
	err := bc.InstallLicense("LICENSE.txt")
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("InstallLicense() error = %v, want ErrMissingFile", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(bc.Cwd, "LICENSE.txt")) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestInstallRejectsBadInput(t *testing.T) {
	bc := newTestContext(t)
	writeFile(t, filepath.Join(bc.Cwd, "README"), "x")

	if err := bc.InstallMan("README"); err == nil {
		t.Error("InstallMan(README) succeeded, want section error")
	}
	if err := bc.InstallCompletion("README", "tcsh"); err == nil {
		t.Error("InstallCompletion(tcsh) succeeded, want unknown shell error")
	}
}

func TestDoUsesRunner(t *testing.T) {
	bc := newTestContext(t)
	runner := &recordingRunner{}
	bc.Runner = runner

	var out bytes.Buffer
	if err := bc.DoOutput(context.Background(), &out, "gmake", "man"); err != nil {
		t.Fatal(err)
	}
	if len(runner.cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(runner.cmds))
	}
	c := runner.cmds[0]
	if c.Program != "gmake" || c.Dir != bc.Cwd || c.Stdout != &out {
		t.Errorf("unexpected command %+v", c)
	}
	if got := c.String(); got != "gmake man" {
		t.Errorf("String() = %q", got)
	}

	var hasPkgname bool
	for _, kv := range c.Env {
		if kv == "pkgname=sbctl" {
			hasPkgname = true
		}
	}
	if !hasPkgname {
		t.Errorf("env %v lacks pkgname", c.Env)
	}
}

func TestCommandStringQuotes(t *testing.T) {
	c := &Command{Program: "sh", Args: []string{"-c", "echo hi there"}}
	if got := c.String(); got != "sh -c 'echo hi there'" {
		t.Errorf("String() = %q", got)
	}
}

func TestExecRunner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping process test in short mode")
	}
	bc := newTestContext(t)

	f, err := bc.CreateFile("out.txt")
	if err != nil {
		t.Fatal(err)
	}
	err = bc.DoOutput(context.Background(), f, "sh", "-c", "echo $pkgname-$pkgver")
	f.Close()
	if err != nil {
		t.Fatalf("DoOutput() error = %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(bc.Cwd, "out.txt"))
	if strings.TrimSpace(string(data)) != "sbctl-0.12" {
		t.Errorf("output = %q", data)
	}

	err = bc.Do(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Do() error = %v, want *CommandError", err)
	}
	if !errors.Is(err, ErrCommandFailed) {
		t.Error("error does not wrap ErrCommandFailed")
	}
	if cmdErr.ExitCode != 3 || cmdErr.Stderr != "boom" {
		t.Errorf("CommandError = %+v", cmdErr)
	}

	err = bc.Do(context.Background(), "cbuild-no-such-program")
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("missing program error = %v", err)
	}
}

func TestShellHook(t *testing.T) {
	bc := newTestContext(t)
	script := "mkdir -p docs\necho \"$pkgname $pkgver\" > docs/version"

	if err := Shell(script)(context.Background(), bc); err != nil {
		t.Fatalf("Shell() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(bc.Cwd, "docs/version"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "sbctl 0.12\n" {
		t.Errorf("hook output = %q", data)
	}

	err = Shell("exit 4")(context.Background(), bc)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 4 {
		t.Errorf("Shell(exit 4) error = %v", err)
	}
}

func TestShellHookKeepsStderr(t *testing.T) {
	bc := newTestContext(t)
	var stderr bytes.Buffer
	bc.Stderr = &stderr

	err := Shell("echo building >&2\necho oops >&2\nexit 3")(context.Background(), bc)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Shell() error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.Stderr != "building\noops" {
		t.Errorf("Stderr = %q", cmdErr.Stderr)
	}
	if stderr.String() != "building\noops\n" {
		t.Errorf("hook stderr not passed through: %q", stderr.String())
	}
}

func TestSetRun(t *testing.T) {
	bc := newTestContext(t)
	var ran []Stage
	record := func(s Stage) Func {
		return func(ctx context.Context, bc *Context) error {
			ran = append(ran, s)
			return nil
		}
	}
	set := Set{PostBuild: record(PostBuild), PostInstall: record(PostInstall)}

	for _, stage := range Stages {
		if err := set.Run(context.Background(), stage, bc); err != nil {
			t.Fatalf("Run(%s) error = %v", stage, err)
		}
	}
	if diff := cmp.Diff([]Stage{PostBuild, PostInstall}, ran); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}

	failing := Set{PreBuild: func(ctx context.Context, bc *Context) error { return ErrMissingFile }}
	err := failing.Run(context.Background(), PreBuild, bc)
	if !errors.Is(err, ErrMissingFile) || !strings.HasPrefix(err.Error(), "pre_build:") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestFromTemplate(t *testing.T) {
	set := FromTemplate(&template.Template{Hooks: map[string]string{
		"post_install": "true",
		"pre_build":    "true",
	}})
	var bound []string
	for _, s := range Stages {
		if set.Get(s) != nil {
			bound = append(bound, string(s))
		}
	}
	sort.Strings(bound)
	if diff := cmp.Diff([]string{"post_install", "pre_build"}, bound); diff != "" {
		t.Errorf("bound stages mismatch (-want +got):\n%s", diff)
	}
}
