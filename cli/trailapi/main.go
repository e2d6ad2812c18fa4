package main

import (
	"os"

	servecmder "github.com/papercomputeco/trail/cmd/trail/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "trailapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .trail/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
