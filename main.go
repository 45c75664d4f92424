package main

import (
	"os"

	"github.com/spigell/visa-assessor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
