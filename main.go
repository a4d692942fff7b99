package main

import (
	"os"

	"github.com/liftscope/liftscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
