// Package main is the entry point of the devflow CLI.
package main

import (
	"os"

	"github.com/huangsam/devflow/cmd"
	"github.com/huangsam/devflow/internal/contract"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if closeErr := cmd.CloseStores(); closeErr != nil {
		contract.LogWarn("Failed to close stores", closeErr)
	}
	if err != nil {
		contract.Log.Error(err)
		os.Exit(1)
	}
}
