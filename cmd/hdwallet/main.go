package main

import (
	"fmt"
	"os"

	"github.com/Davincible/hdwallet/internal/cli"
	"github.com/Davincible/hdwallet/internal/log"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit))

	if err := rootCmd.Execute(); err != nil {
		log.CLI.Error().Err(err).Msg("command execution failed")
		os.Exit(1)
	}
}
