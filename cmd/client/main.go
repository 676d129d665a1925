package main

import (
	"os"

	"github.com/plume-im/plume/cmd/client/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
