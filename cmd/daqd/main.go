// Package main provides the daqd binary.
package main

import (
	"os"

	"github.com/mesh-intelligence/daqd/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
