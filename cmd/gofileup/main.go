package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gofileup/internal/app"
	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := app.WatchSignals(cancel)
	defer stop()

	cfg, rest, err := config.LoadConfig(args)
	if err != nil {
		return exitCode(err)
	}

	a, err := app.NewApp(cfg, os.Stdout, os.Stderr)
	if err != nil {
		return exitCode(err)
	}

	return exitCode(a.Run(ctx, rest))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if common.IsUsage(err) {
		fmt.Fprintln(os.Stderr)
		config.Usage(os.Stderr)
	}
	return app.ExitCode(err)
}
