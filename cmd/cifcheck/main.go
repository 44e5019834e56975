package main

import (
	"os"

	"github.com/msto63/mcif/cmd/cifcheck/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
