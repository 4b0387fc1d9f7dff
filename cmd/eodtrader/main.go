package main

import (
	"os"

	"github.com/rustyeddy/eodtrader/cmd/eodtrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
