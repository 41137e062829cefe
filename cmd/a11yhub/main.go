package main

import (
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = ""

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
