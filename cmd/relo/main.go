package main

import (
	"os"

	"relo/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
