package main

import (
	"os"

	"github.com/dshills/gavel/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
