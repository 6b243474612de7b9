// cmd/cbuild/main.go
package main

import (
	"context"
	"os"

	_ "github.com/arc-language/cbuild/contrib"
	"github.com/arc-language/cbuild/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
