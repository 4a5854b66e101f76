package main

import (
	"os"

	"github.com/lsmcp-dev/lsmcp/internal/cli/commands"
)

// Version, GitCommit, BuildDate, and GoVersion are overridden at build time
// via -ldflags, e.g.:
//
//	go build -ldflags "-X main.Version=$(git describe --tags)" ./cmd/lsmcp
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate
	commands.GoVersion = GoVersion

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
