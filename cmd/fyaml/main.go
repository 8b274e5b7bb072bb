// Package main provides the CLI entry point for fyaml, the
// filesystem-backed YAML packer.
package main

import (
	"fmt"
	"os"

	"github.com/ndintenfass/fyaml/internal/cmd"
)

// version is stamped at build time via -ldflags, mirroring the teacher's
// Version constant/injection convention.
var version = "dev"

func main() {
	cmd.Version = version
	root := cmd.NewRootCommand()

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
