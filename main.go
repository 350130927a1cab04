package main

import (
	"os"

	"github.com/abhisek/nextstep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
