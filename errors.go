// errors.go
package cbuild

import (
	"errors"
	"fmt"

	"github.com/arc-language/cbuild/pkg/fetch"
	"github.com/arc-language/cbuild/pkg/hook"
	"github.com/arc-language/cbuild/pkg/recipe"
	"github.com/arc-language/cbuild/pkg/template"
)

var (
	// ErrTemplateNotFound indicates no template is known under the name
	ErrTemplateNotFound = recipe.ErrNotFound

	// ErrInvalidTemplate indicates a template failed validation
	ErrInvalidTemplate = template.ErrInvalid

	// ErrUnknownArch indicates an architecture outside the known set
	ErrUnknownArch = template.ErrUnknownArch

	// ErrHashMismatch indicates a hash verification failure
	ErrHashMismatch = fetch.ErrHashMismatch

	// ErrCommandFailed indicates an external command exited non-zero
	ErrCommandFailed = hook.ErrCommandFailed

	// ErrMissingFile indicates an install helper was given a missing file
	ErrMissingFile = hook.ErrMissingFile

	// ErrCrossUnsupported indicates a !cross template was planned for a
	// foreign architecture
	ErrCrossUnsupported = errors.New("template does not support cross builds")
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Pipeline step that failed
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
