package main

import (
	"github.com/samvad-hq/saucerest/internal/cli"
	"github.com/samvad-hq/saucerest/pkg/saucerest"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if version != "dev" {
		saucerest.Version = version
	}
	cli.SetVersion(version, buildTime)
	cli.Execute()
}
