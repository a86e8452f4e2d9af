package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/md-rashed-zaman/appointmed/libs/config"
	"github.com/md-rashed-zaman/appointmed/libs/runtime"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/migrations"
)

// Usage: migrate [up|down|force <version>|version]
func main() {
	_ = config.LoadDotEnv()
	logger := runtime.NewLogger("appointment-migrate")

	if err := run(os.Args[1:]); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		version, perr := strconv.Atoi(args[1])
		if perr != nil {
			return fmt.Errorf("invalid version: %w", perr)
		}
		err = m.Force(version)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return verr
		}
		fmt.Printf("version %d (dirty=%v)\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}
	fmt.Println("migrations complete")
	return nil
}
