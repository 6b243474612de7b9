package index

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	"github.com/arc-language/cbuild/pkg/template"
)

const helloYAML = `pkgname: hello
pkgver: "2.12.1"
pkgrel: 0
pkgdesc: Prints a friendly greeting
license: GPL-3.0-or-later
url: https://www.gnu.org/software/hello
source: https://ftp.gnu.org/gnu/hello/hello-{pkgver}.tar.gz
sha256: 8d99142afd92576f30b0cd7cb42a8dc6809998bc5d607d88761f512e26c7db20
build_style: makefile
hooks:
  post_install: install -Dm644 README "$DESTDIR/usr/share/doc/hello/README"
`

func writeTemplate(t *testing.T, root, category, name, body string) {
	t.Helper()
	dir := filepath.Join(root, category, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, TemplateFile), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTree(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "main", "hello", helloYAML)
	writeTemplate(t, root, "contrib", "world", strings.ReplaceAll(helloYAML, "hello", "world"))

	// ignored: wrong depth and hidden directories
	writeTemplate(t, root, ".git", "hello", "not: a template")
	if err := os.WriteFile(filepath.Join(root, TemplateFile), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"hello", "world"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	rc, err := reg.Get("hello")
	if err != nil {
		t.Fatal(err)
	}
	if rc.Hooks.PostInstall == nil {
		t.Error("post_install hook not bound from template")
	}
	if rc.Hooks.PreBuild != nil {
		t.Error("pre_build hook bound without a script")
	}
	if err := rc.Template.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingDir(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n := len(reg.Names()); n != 0 {
		t.Errorf("got %d templates, want 0", n)
	}
}

func TestLoadReportsBadTemplates(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "main", "hello", helloYAML)
	writeTemplate(t, root, "main", "broken", "pkgname: broken\npkgvr: 1\n")
	writeTemplate(t, root, "main", "misnamed", helloYAML)

	reg, err := Load(root)
	if err == nil {
		t.Fatal("Load() succeeded, want error")
	}
	if !errors.Is(err, template.ErrInvalid) {
		t.Errorf("error %v does not wrap ErrInvalid", err)
	}
	if !strings.Contains(err.Error(), "does not match directory") {
		t.Errorf("error %q does not report the misnamed template", err)
	}
	if _, getErr := reg.Get("hello"); getErr != nil {
		t.Errorf("good template not loaded: %v", getErr)
	}
}

// commitTemplates creates a git repository holding one commit of the
// given templates under templates/main
func commitTemplates(t *testing.T, templates map[string]string) string {
	t.Helper()
	upstream := t.TempDir()
	repo, err := git.PlainInit(upstream, false)
	if err != nil {
		t.Fatal(err)
	}
	for name, body := range templates {
		writeTemplate(t, filepath.Join(upstream, "templates"), "main", name, body)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("templates"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("add templates", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.org", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return upstream
}

func TestSync(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	upstream := commitTemplates(t, map[string]string{"hello": helloYAML})

	dir := filepath.Join(t.TempDir(), "templates")
	writeTemplate(t, dir, "main", "stale", strings.ReplaceAll(helloYAML, "hello", "stale"))

	if err := Sync(context.Background(), upstream, dir, nil); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	reg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hello"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); !os.IsNotExist(err) {
		t.Error(".git copied into the template tree")
	}
}

func TestSyncKeepsTreeOnInvalidTemplate(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	// decodes fine but carries a malformed checksum
	bad := strings.ReplaceAll(helloYAML, "hello", "world")
	bad = strings.Replace(bad, "8d99142afd92576f30b0cd7cb42a8dc6809998bc5d607d88761f512e26c7db20", "not-a-hash", 1)
	upstream := commitTemplates(t, map[string]string{"hello": helloYAML, "world": bad})

	dir := filepath.Join(t.TempDir(), "templates")
	writeTemplate(t, dir, "main", "stale", strings.ReplaceAll(helloYAML, "hello", "stale"))

	err := Sync(context.Background(), upstream, dir, nil)
	if !errors.Is(err, template.ErrInvalid) {
		t.Fatalf("Sync() error = %v, want ErrInvalid", err)
	}

	reg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"stale"}, reg.Names()); diff != "" {
		t.Errorf("existing tree replaced (-want +got):\n%s", diff)
	}
}
