package main

import (
	"os"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
