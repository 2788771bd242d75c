package main

import (
	"log"
	"os"

	"github.com/bnema/shellexport/cmd/shellexport/commands"
)

func main() {
	log.SetFlags(log.Ltime)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
