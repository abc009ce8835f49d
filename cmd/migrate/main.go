package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/db"
	"github.com/geocoder89/supplylens/internal/observability"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, cancel := config.WithTimeout(context.Background(), *timeout)
	defer cancel()

	migrator, err := db.NewMigrator(cfg.DBURL, log)
	if err != nil {
		log.Error("failed to configure migrations", "err", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = migrator.Up(ctx)
	case "status":
		err = migrator.Status(ctx)
	case "down":
		err = migrator.Down(ctx, *target)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}

	if err != nil {
		log.Error("migration command failed", "command", *command, "err", err)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}
