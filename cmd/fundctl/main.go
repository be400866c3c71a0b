// Command fundctl runs operator tasks against the fund tracker database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/nhm-india/fund-tracker/internal/cli"
	"github.com/nhm-india/fund-tracker/internal/config"
	"github.com/nhm-india/fund-tracker/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadCLI()
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "database location (defaults to DATABASE_URL)")

	logger, err := logging.New(fallbackLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	app := &cli.App{
		Log:          logger,
		Out:          os.Stdout,
		Err:          os.Stderr,
		ReadPassword: cli.TerminalPassword,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cli.Register(commander, app)

	flag.Parse()
	app.DatabaseURL = *databaseURL

	status := commander.Execute(context.Background())
	if err := app.Close(); err != nil {
		logger.Sugar().Warnf("close database: %v", err)
	}
	_ = logger.Sync()
	os.Exit(int(status))
}

// fallbackLevel keeps the CLI quiet unless debugging was asked for.
func fallbackLevel(level string) string {
	if level == "debug" {
		return level
	}
	return "warn"
}
