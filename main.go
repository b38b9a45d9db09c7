package main

import (
	"os"

	"github.com/charmbracelet/log"

	"stencil/internal/app"
)

func main() {
	if os.Getenv("STENCIL_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
	// Tool traffic owns stdout; logs go to stderr.
	log.SetOutput(os.Stderr)

	if err := app.Run(); err != nil {
		log.Fatal("server exited", "err", err)
	}
}
