package main

import (
	"errors"
	"log"
	"os"

	"github.com/TwigBush/opa-authz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrDenied) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
