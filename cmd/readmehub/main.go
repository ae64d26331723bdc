package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/readmehub/internal/app"
	"github.com/MrSnakeDoc/readmehub/internal/config"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cli := newCLIApp(serve, buildSynchronizer, os.Stdout)
	if err := cli.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ readmehub: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	a, err := app.New()
	if err != nil {
		return err
	}
	return a.Run()
}

// buildSynchronizer is what the offline commands run against. They log at
// warn level only so stdout stays clean for the exported document.
func buildSynchronizer() (*syncer.Synchronizer, error) {
	cfg := config.LoadStore()
	s, _, err := app.BuildSynchronizer(cfg, logger.New("warn", cfg.PrettyLog))
	return s, err
}
