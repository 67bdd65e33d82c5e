package main

import (
	"os"

	"github.com/wonny/statusboard/cmd/statusboard/commands"
)

// main is the entry point for the statusboard CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
