package main

import (
	"os"

	"github.com/kcalliga/rca-core/cmd/rca-core/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
