package main

import (
	"os"

	"github.com/travissluka/hutt/cmd/hutt/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		cmd.PrintError(err)
	}
	os.Exit(cmd.ExitCode(err))
}
