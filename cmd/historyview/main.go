package main

import (
	"os"
	_ "time/tzdata"

	"github.com/runnerr0/historyview/internal/cli"
)

var version = "dev"

func main() {
	// go-flags prints parse and command errors itself.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
