package main

import (
	"fmt"
	"os"

	"github.com/iudanet/ledgersync/internal/client/cli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.Version, cli.BuildDate, cli.GitCommit = Version, BuildDate, GitCommit

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
