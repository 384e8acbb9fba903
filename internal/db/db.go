package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/wind-smp/market-backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BuildDSN assembles the MySQL DSN. INSTANCE_CONNECTION_NAME wins so the
// Cloud Run deployment talks over the Cloud SQL socket; otherwise DB_HOST
// may be a bare host, an absolute socket path, or an already-wrapped
// tcp()/unix() address.
func BuildDSN(cfg *config.Config) string {
	var addr string
	switch {
	case cfg.InstanceConnectionName != "":
		addr = fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	case strings.HasPrefix(cfg.DBHost, "tcp(") || strings.HasPrefix(cfg.DBHost, "unix("):
		addr = cfg.DBHost
	case strings.HasPrefix(cfg.DBHost, "/"):
		addr = fmt.Sprintf("unix(%s)", cfg.DBHost)
	default:
		addr = fmt.Sprintf("tcp(%s:%s)", cfg.DBHost, cfg.DBPort)
	}

	// parseTime so DATETIME columns scan into time.Time; utf8mb4 because
	// item names and dispute comments are player-typed text.
	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, addr, cfg.DBName)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(BuildDSN(cfg)), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// The board is poll-heavy: many short reads, few writes. Keep a modest
	// pool and recycle connections ahead of Cloud SQL's idle cutoff.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(8)
	sqlDB.SetConnMaxLifetime(4 * time.Minute)

	return db, nil
}
