package main

import (
	"os"

	"github.com/dshills/codecheck/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
