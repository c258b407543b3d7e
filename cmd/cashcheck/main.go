package main

import (
	"os"

	"github.com/cashcheck-dev/cashcheck/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
