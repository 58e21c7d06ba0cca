// Command migrate applies or rolls back the SQL schema.
//
//	migrate up
//	migrate down [steps]
//	migrate force <version>
//	migrate version
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/pkg/config"
	"github.com/hugh/go-attend/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate up | down [steps] | force <version> | version")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)

	if err := run(cfg.Database.URL(), logger, flag.Args()); err != nil {
		logger.Error("migration failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(url string, logger *slog.Logger, args []string) error {
	switch args[0] {
	case "up":
		return database.Migrate(url, logger)

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		if err := database.Rollback(url, steps); err != nil {
			return err
		}
		logger.Info("rolled back migrations", "steps", steps)
		return nil

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force needs a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := database.Force(url, version); err != nil {
			return err
		}
		logger.Warn("forced migration version", "version", version)
		return nil

	case "version":
		version, dirty, err := database.MigrationVersion(url)
		if err != nil {
			return err
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
