// Package contrib links every compiled-in template into the default
// recipe registry. Import it for its side effects.
package contrib

import (
	_ "github.com/arc-language/cbuild/contrib/neovim"
	_ "github.com/arc-language/cbuild/contrib/sbctl"
)
