// Package main is the entry point for the martclean CLI.
package main

import (
	"log"
	"os"

	"github.com/leeovery/martclean/internal/cli"
)

func main() {
	log.SetFlags(0)

	app := &cli.App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	os.Exit(app.Run(os.Args))
}
