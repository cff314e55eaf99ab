// Command migrate applies the embedded schema: migrate up|down|version.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-marketplace-orders/internal/config"
	"github.com/ariefcatur/go-marketplace-orders/internal/logging"
	"github.com/ariefcatur/go-marketplace-orders/internal/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(cmd, cfg.PostgresDSN); err != nil {
		logger.Error("migrate failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(cmd, dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if verr != nil {
			return verr
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", cmd)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
