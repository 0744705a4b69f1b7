// Command migrate applies or rolls back the entity schema.
//
//	migrate up
//	migrate down [steps]
//	migrate version
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	"github.com/jonesrussell/north-crm/entity-service/internal/database"
	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// Exit codes for the migrate command.
const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: migrate <up|down [steps]|version>")
		return exitFailure
	}

	command := args[0]
	steps, err := parseSteps(command, args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	cfg, err := config.Load(infraconfig.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if validationErr := infraconfig.ValidateRequired("database.url", cfg.Database.URL); validationErr != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", validationErr)
		return exitFailure
	}

	log, err := infralogger.New(infralogger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = log.Sync() }()

	mg, err := database.NewMigrator(cfg.Database.URL, cfg.Service.MigrationsPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		return exitFailure
	}
	defer func() { _ = mg.Close() }()

	switch command {
	case "up":
		err = mg.Up()
	case "down":
		err = mg.Down(steps)
	case "version":
		err = printVersion(mg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", command, err)
		return exitFailure
	}

	return exitSuccess
}

func parseSteps(command string, rest []string) (int, error) {
	switch command {
	case "up", "version":
		return 0, nil
	case "down":
		if len(rest) == 0 {
			return 1, nil
		}
		steps, err := strconv.Atoi(rest[0])
		if err != nil || steps < 1 {
			return 0, fmt.Errorf("invalid step count %q (must be a positive integer)", rest[0])
		}
		return steps, nil
	default:
		return 0, fmt.Errorf("invalid command %q (must be \"up\", \"down\" or \"version\")", command)
	}
}

func printVersion(mg *database.Migrator) error {
	version, dirty, ok, err := mg.Version()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No migrations applied")
		return nil
	}
	fmt.Printf("Version %d (dirty: %t)\n", version, dirty)
	return nil
}
