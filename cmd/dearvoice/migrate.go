package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BaSui01/dearvoice/internal/migration"
)

// =============================================================================
// Memory Store Migration Commands
// =============================================================================

// runMigrate handles the migrate command and its subcommands
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subargs := args[1:]

	var err error
	switch subcommand {
	case "up":
		err = withMigrator("migrate up", subargs, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunUp(ctx)
		})
	case "down":
		all := false
		err = withMigrator("migrate down", subargs, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunDown(ctx, all)
		}, func(fs *flag.FlagSet) {
			fs.BoolVar(&all, "all", false, "Rollback all migrations")
		})
	case "reset":
		err = withMigrator("migrate reset", subargs, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunDown(ctx, true)
		})
	case "status":
		err = withMigrator("migrate status", subargs, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunStatus(ctx)
		})
	case "version":
		err = withMigrator("migrate version", subargs, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunVersion(ctx)
		})
	case "goto":
		version, rest := versionArg("goto", subargs)
		v, perr := strconv.ParseUint(version, 10, 32)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Invalid version number: %s\n", version)
			os.Exit(1)
		}
		err = withMigrator("migrate goto", rest, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunGoto(ctx, uint(v))
		})
	case "force":
		version, rest := versionArg("force", subargs)
		v, perr := strconv.ParseInt(version, 10, 32)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Invalid version number: %s\n", version)
			os.Exit(1)
		}
		err = withMigrator("migrate force", rest, func(ctx context.Context, cli *migration.CLI) error {
			return cli.RunForce(ctx, int(v))
		})
	case "help", "-h", "--help":
		printMigrateUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", subcommand, err)
		os.Exit(1)
	}
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`Memory Store Migration Commands

Usage:
  dearvoice migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration (--all for every migration)
  status    Show migration status
  version   Show current migration version
  goto      Migrate to a specific version
  force     Force set migration version (use with caution)
  reset     Rollback all migrations
  help      Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --db-type <type>    Database type: mysql, postgres, sqlite (default: from config)
  --db-url <url>      Database connection URL (default: from config)

Examples:
  dearvoice migrate up
  dearvoice migrate up --config /etc/dearvoice/config.yaml
  dearvoice migrate down
  dearvoice migrate status
  dearvoice migrate goto 1
  dearvoice migrate force 0
  dearvoice migrate reset`)
}

// versionArg splits "<version> [flags...]" and exits when the version is missing
func versionArg(subcommand string, args []string) (string, []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: dearvoice migrate %s <version>\n", subcommand)
		os.Exit(1)
	}
	return args[0], args[1:]
}

// withMigrator parses the shared flags, opens a migrator and runs fn against it
func withMigrator(name string, args []string, fn func(context.Context, *migration.CLI) error,
	extraFlags ...func(*flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	for _, register := range extraFlags {
		register(fs)
	}

	migrator, err := createMigrator(fs, args)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	return fn(context.Background(), migration.NewCLI(migrator))
}

// createMigrator creates a migrator from command line flags
func createMigrator(fs *flag.FlagSet, args []string) (*migration.DefaultMigrator, error) {
	configPath := fs.String("config", "", "Path to config file")
	dbType := fs.String("db-type", "", "Database type (mysql, postgres, sqlite)")
	dbURL := fs.String("db-url", "", "Database connection URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// If db-type and db-url are provided, use them directly
	if *dbType != "" && *dbURL != "" {
		return migration.NewMigratorFromURL(*dbType, *dbURL)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if *dbType != "" {
		cfg.Database.Driver = *dbType
	}

	return migration.NewMigratorFromDatabaseConfig(cfg.Database)
}
