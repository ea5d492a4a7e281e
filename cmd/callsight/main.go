package main

import (
	"os"

	"github.com/tillberg/autorestart"

	"github.com/callsight/callsight/internal/cli"
)

func main() {
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
