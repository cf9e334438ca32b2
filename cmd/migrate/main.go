// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate [up|down|status]
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/storefront/internal/config"
	"github.com/BradenHooton/storefront/internal/database"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(command, logger); err != nil {
		logger.Error("migration failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(command string, logger *slog.Logger) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	switch command {
	case "up":
		err = database.Migrate(ctx, db)
	case "down":
		err = database.MigrateDown(ctx, db)
	case "status":
		err = database.MigrationStatus(ctx, db)
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
	if err != nil {
		return err
	}

	logger.Info("migration command completed", slog.String("command", command))
	return nil
}
