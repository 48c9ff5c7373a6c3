// Command rulexpr evaluates business-rule expressions from the shell.
package main

import (
	"os"

	"github.com/randalmurphal/rulexpr/cmd/rulexpr/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
