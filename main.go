package main

import (
	"os"

	"github.com/spigell/crewmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
