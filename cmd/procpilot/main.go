package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/voluzi/procpilot/cmd/procpilot/cmd"
)

func main() {
	cmd.Execute()
}
