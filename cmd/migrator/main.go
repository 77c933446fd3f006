package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appMigrations "github.com/yigit/labsphere/internal/app/migrations"
	"github.com/yigit/labsphere/internal/config"
	"github.com/yigit/labsphere/internal/db"
	"github.com/yigit/labsphere/internal/pkg/logger"
	"github.com/yigit/labsphere/internal/seed"
)

func main() {
	configPath := flag.String("config", filepath.Join("configs", "config.yaml"), "path to the YAML config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command := args[0]

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr := logger.Component("migrator")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	migrator, err := appMigrations.NewMigrator(database.Pool, lgr)
	if err != nil {
		lgr.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer migrator.Close()

	switch command {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	case "seed":
		err = seed.CreateDefaultData(ctx, database.Pool, cfg.Seed.DemoPassword, lgr)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		lgr.Error().Err(err).Str("command", command).Msg("Command failed")
		os.Exit(1)
	}
	lgr.Info().Str("command", command).Msg("Done")
}

func usage() {
	fmt.Println("Usage: migrator [-config path] <command>")
	fmt.Println("Commands:")
	fmt.Println("  up      apply all pending migrations")
	fmt.Println("  down    roll back the most recent migration")
	fmt.Println("  status  show the state of every migration")
	fmt.Println("  seed    insert the interest vocabulary and demo data")
}
