package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/logger"

	"advent/internal/cli"
	"advent/internal/config"
)

var version = "dev"

func main() {
	// .env must be read before kong resolves env-backed flags.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var root cli.CLI
	kctx := kong.Parse(&root,
		kong.Name("advent"),
		kong.Description("Advent calendar with a prize wheel: one door per day, each prize awarded once."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	kctx.FatalIfErrorf(root.Config.Validate())

	// The server logs requests to stdout by default; other commands keep
	// stdout for their own output.
	verbose := root.Verbose || (kctx.Command() == "serve" && root.LogFile == "")
	closeLog := cli.InitLogging(root.Config, verbose)

	app, err := cli.Open(context.Background(), root.Config)
	if err != nil {
		logger.Errorf("Startup failed: %v", err)
		closeLog()
		os.Exit(1)
	}

	err = kctx.Run(app)
	if cerr := app.Close(); cerr != nil {
		logger.Errorf("Closing store: %v", cerr)
	}
	if err != nil {
		logger.Errorf("Error: %v", err)
		closeLog()
		os.Exit(1)
	}
	closeLog()
}
