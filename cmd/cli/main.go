// Package main is the entry point for the fabric-bridge CLI binary.
package main

import (
	"os"

	cli "fabric-bridge/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
