package main

import (
	"os"

	"github.com/gmodebadze/eventscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
