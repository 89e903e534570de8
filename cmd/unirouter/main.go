package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tillberg/autorestart"

	"github.com/lendfront/unirouter/internal/cli"
)

func main() {
	// Provider URLs and the classifier API key commonly live in a local
	// .env during development; absence is fine.
	_ = godotenv.Load()

	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
