package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/arc-language/cbuild/pkg/template"
)

type entry struct {
	name string
	body string
	link string
}

func tarball(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.link != "" {
			hdr = &tar.Header{Name: e.name, Linkname: e.link, Typeflag: tar.TypeSymlink}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.link == "" {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, format string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch format {
	case "gz":
		w = gzip.NewWriter(&buf)
	case "xz":
		w, err = xz.NewWriter(&buf)
	case "zst":
		w, err = zstd.NewWriter(&buf)
	default:
		return data
	}
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

var sources = []entry{
	{name: "sbctl-0.12/LICENSE", body: "MIT"},
	{name: "sbctl-0.12/cmd/sbctl/main.go", body: "package main"},
}

func TestExtractFormats(t *testing.T) {
	for _, format := range []string{"gz", "xz", "zst", "tar"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			name := "sbctl-0.12.tar"
			if format != "tar" {
				name += "." + format
			}
			archive := filepath.Join(dir, name)
			if err := os.WriteFile(archive, compress(t, format, tarball(t, sources)), 0644); err != nil {
				t.Fatal(err)
			}

			wrksrc, err := Extract(archive, filepath.Join(dir, "build"))
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if filepath.Base(wrksrc) != "sbctl-0.12" {
				t.Errorf("source root = %s", wrksrc)
			}
			data, err := os.ReadFile(filepath.Join(wrksrc, "LICENSE"))
			if err != nil || string(data) != "MIT" {
				t.Errorf("LICENSE = %q, %v", data, err)
			}
		})
	}
}

func TestExtractRejectsEscapes(t *testing.T) {
	tests := map[string][]entry{
		"dotdot":   {{name: "../evil", body: "x"}},
		"symlink":  {{name: "pkg/link", link: "../../etc/passwd"}},
		"abs link": {{name: "pkg/link", link: "/etc/passwd"}},
		"chained links": {
			{name: "a", link: "."},
			{name: "a/c", link: ".."},
			{name: "c/evil", body: "x"},
		},
		"file below link": {
			{name: "a", link: "."},
			{name: "a/evil", body: "x"},
		},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "bad.tar")
			if err := os.WriteFile(archive, tarball(t, entries), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Extract(archive, filepath.Join(dir, "out"))
			if !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("Extract() error = %v, want ErrUnsafePath", err)
			}
			if _, err := os.Stat(filepath.Join(dir, "evil")); !os.IsNotExist(err) {
				t.Errorf("file written outside the destination")
			}
		})
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "src.zip")
	os.WriteFile(archive, []byte("PK"), 0644)
	if _, err := Extract(archive, dir); err == nil {
		t.Fatal("Extract(.zip) succeeded")
	}
}

func newServer(t *testing.T, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/releases/download/0.12/sbctl-0.12.tar.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testTemplate(url, hash string) *template.Template {
	return &template.Template{
		PkgName: "sbctl",
		PkgVer:  "0.12",
		URL:     url,
		Source:  "{url}/releases/download/{pkgver}/{pkgname}-{pkgver}.tar.gz",
		SHA256:  hash,
	}
}

func TestFetchVerifiesAndCaches(t *testing.T) {
	body := compress(t, "gz", tarball(t, sources))
	srv, hits := newServer(t, body)

	f := New(t.TempDir(), nil, nil)
	tmpl := testTemplate(srv.URL, sum(body))

	path, err := f.Fetch(context.Background(), tmpl)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filepath.Base(path) != "sbctl-0.12.tar.gz" {
		t.Errorf("path = %s", path)
	}

	if _, err := f.Fetch(context.Background(), tmpl); err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestFetchHashMismatch(t *testing.T) {
	body := compress(t, "gz", tarball(t, sources))
	srv, _ := newServer(t, body)

	f := New(t.TempDir(), nil, nil)
	tmpl := testTemplate(srv.URL, sum([]byte("something else")))

	_, err := f.Fetch(context.Background(), tmpl)
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("Fetch() error = %v, want ErrHashMismatch", err)
	}
	if _, err := os.Stat(f.Path(tmpl)); !os.IsNotExist(err) {
		t.Error("mismatching archive left in the sources directory")
	}
	if _, err := os.Stat(f.Path(tmpl) + ".part"); !os.IsNotExist(err) {
		t.Error("partial download left behind")
	}
}

func TestFetchRefetchesCorruptCache(t *testing.T) {
	body := compress(t, "gz", tarball(t, sources))
	srv, hits := newServer(t, body)

	f := New(t.TempDir(), nil, nil)
	tmpl := testTemplate(srv.URL, sum(body))

	path := f.Path(tmpl)
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("truncated"), 0644)

	if _, err := f.Fetch(context.Background(), tmpl); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := VerifyFile(path, tmpl.SHA256); err != nil {
		t.Errorf("VerifyFile() error = %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv, _ := newServer(t, nil)
	f := New(t.TempDir(), nil, nil)
	tmpl := testTemplate(srv.URL+"/missing", sum(nil))
	if _, err := f.Fetch(context.Background(), tmpl); err == nil {
		t.Fatal("Fetch() of a 404 succeeded")
	}
}
