package main

import (
	"os"

	"github.com/kjstillabower/solawi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
