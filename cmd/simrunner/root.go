package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simrunner",
	Short: "Headless soak runner for the Fridges must die server",
	Long: `Runs full seeded game runs in-process with a scripted bot player
and reports the outcome of each run.

No sockets, no storage: the engine, event log and bot talk directly.
Useful for balance tuning and for catching simulation regressions
that unit tests are too narrow to see.

Example:
  simrunner run
  simrunner run --runs 5 --seed 42 --levels 3`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
