package main

import (
	"fmt"
	"os"

	"pokerunboard/logger"
	"pokerunboard/runs"
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", runs.Message(err))
		os.Exit(1)
	}
}
