package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/dearvoice/config"
)

// ErrNotConfigured 表示未配置 SQL 数据库，记忆功能不可用.
var ErrNotConfigured = fmt.Errorf("database driver not configured")

// Dialector 按驱动名返回 GORM 方言.
func Dialector(dbCfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch dbCfg.Driver {
	case "":
		return nil, ErrNotConfigured
	case "postgres":
		return postgres.Open(dbCfg.DSN()), nil
	case "mysql":
		return mysql.Open(dbCfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(dbCfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres, sqlite)", dbCfg.Driver)
	}
}

// Open 打开记忆库连接.
func Open(dbCfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(dbCfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	logger.Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
