// pkg/fetch/fetch.go
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/arc-language/cbuild/pkg/template"
)

// ErrHashMismatch indicates a fetched archive does not match its sha256
var ErrHashMismatch = errors.New("hash mismatch")

// Fetcher downloads template sources into a shared sources directory
type Fetcher struct {
	client *Client
	dir    string
	logger *log.Logger
}

// New creates a Fetcher storing archives under dir
func New(dir string, client *Client, logger *log.Logger) *Fetcher {
	if client == nil {
		client = NewClient()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{client: client, dir: dir, logger: logger}
}

// Path returns where the archive of t is stored
func (f *Fetcher) Path(t *template.Template) string {
	return filepath.Join(f.dir, t.PkgName+"-"+t.PkgVer, t.Distfile())
}

// Fetch makes sure the verified source archive of t is present and returns
// its path. A cached archive is reused only if its hash still matches.
func (f *Fetcher) Fetch(ctx context.Context, t *template.Template) (string, error) {
	path := f.Path(t)

	if _, err := os.Stat(path); err == nil {
		if err := VerifyFile(path, t.SHA256); err == nil {
			f.logger.Debug("using cached source", "path", path)
			return path, nil
		}
		f.logger.Warn("cached source does not verify, refetching", "path", path)
		os.Remove(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating sources directory: %w", err)
	}

	url := t.SourceURL()
	f.logger.Info("fetching", "url", url)

	part := path + ".part"
	out, err := os.Create(part)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", part, err)
	}

	hasher := sha256.New()
	n, err := f.client.Download(ctx, url, io.MultiWriter(out, hasher))
	closeErr := out.Close()
	if err != nil {
		os.Remove(part)
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	if closeErr != nil {
		os.Remove(part)
		return "", fmt.Errorf("writing %s: %w", part, closeErr)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != t.SHA256 {
		os.Remove(part)
		return "", fmt.Errorf("%w: %s: want %s, got %s", ErrHashMismatch, t.Distfile(), t.SHA256, actual)
	}

	if err := os.Rename(part, path); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", path, err)
	}

	f.logger.Debug("fetched", "path", path, "bytes", n)
	return path, nil
}

// VerifyFile checks the sha256 of the file at path
func VerifyFile(path, expected string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return err
	}
	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		return fmt.Errorf("%w: %s: want %s, got %s", ErrHashMismatch, filepath.Base(path), expected, actual)
	}
	return nil
}
