package main

import (
	"os"

	"bread-calculator/cmd/calc_service/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
