package main

import (
	"os"

	"github.com/insiderlab/quant/cmd/quant/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
