package main

import (
	"fmt"
	"os"

	trailcmder "github.com/papercomputeco/trail/cmd/trail"
)

func main() {
	cmd := trailcmder.NewTrailCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, trailcmder.ErrorJSON(err))
		os.Exit(1)
	}
}
