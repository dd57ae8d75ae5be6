package main

import (
	"os"

	"github.com/quantlab/rebal/cmd/rebal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
