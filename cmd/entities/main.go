// Package main provides the entities CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/entities/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
