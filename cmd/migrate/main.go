package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/markedwards8480/invoice-processor/internal/shared/config"
	"github.com/markedwards8480/invoice-processor/internal/shared/utils"
)

func main() {
	var module string
	var command string

	flag.StringVar(&module, "module", "invoices", "Migration set under migrations/")
	flag.StringVar(&command, "cmd", "up", "Migration command (up, down, version, force)")
	flag.Parse()

	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)

	migrationPath := fmt.Sprintf("file://migrations/%s", module)
	utils.LogInfo("Running migrations", map[string]interface{}{
		"module":   module,
		"path":     migrationPath,
		"database": maskDatabaseURL(cfg.DatabaseURL),
	})

	m, err := migrate.New(migrationPath, cfg.DatabaseURL)
	if err != nil {
		fatal("Failed to create migrate instance", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			if !errors.Is(err, migrate.ErrNoChange) {
				fatal("Migration up failed", err)
			}
			utils.LogWarn("No migrations to apply", nil)
		}
		utils.LogInfo("Migrations up completed", nil)

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatal("Migration down failed", err)
		}
		utils.LogInfo("Migrations down completed", nil)

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			fatal("Failed to read version", err)
		}
		utils.LogInfo("Current version", map[string]interface{}{"version": version, "dirty": dirty})

	case "force":
		if flag.NArg() < 1 {
			fatal("Force needs a version number", errors.New("missing argument"))
		}
		v, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			fatal("Invalid version number", err)
		}
		if err := m.Force(v); err != nil {
			fatal("Force failed", err)
		}
		utils.LogInfo("Forced version", map[string]interface{}{"version": v})

	default:
		fatal("Unknown command (use: up, down, version, force)", fmt.Errorf("%q", command))
	}
}

func fatal(msg string, err error) {
	utils.LogError(msg, err, nil)
	os.Exit(1)
}

// maskDatabaseURL hides the password portion of the URL in logs.
func maskDatabaseURL(url string) string {
	if len(url) < 20 {
		return "***"
	}
	return url[:20] + "***" + url[len(url)-10:]
}
