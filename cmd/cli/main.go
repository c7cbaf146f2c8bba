package main

import (
	"os"

	"github.com/sundayschool-dev/sundayschool/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
