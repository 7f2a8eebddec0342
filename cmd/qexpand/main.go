package main

import (
	"os"

	"qexpand/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
