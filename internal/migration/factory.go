package migration

import (
	"fmt"

	appconfig "github.com/BaSui01/dearvoice/config"
)

// NewMigratorFromDatabaseConfig creates a migrator for the memory chunk store
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig) (*DefaultMigrator, error) {
	if dbCfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}

	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}
	dbCfg.Driver = string(dbType)

	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  dbCfg.MigrationURL(),
		TableName:    "schema_migrations",
	})
}

// NewMigratorFromURL creates a migrator from an explicit type and URL
func NewMigratorFromURL(dbType, dbURL string) (*DefaultMigrator, error) {
	dt, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}

	return NewMigrator(&Config{
		DatabaseType: dt,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	})
}
