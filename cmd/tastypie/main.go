package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/fivetwenty-io/tastypie-client/cmd/tastypie/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := commands.NewRootCommand(version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
