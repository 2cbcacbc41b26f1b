package database

import (
	"errors"
	"fmt"
	"maps"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// buildMySQLDSN formats the connection string through the driver so that
// credentials with reserved characters survive. Timestamps are parsed as UTC.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dc := mysqldriver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", cmpOr(cfg.Host, "127.0.0.1"), port)
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}
	maps.Copy(dc.Params, cfg.Options)

	return dc.FormatDSN(), nil
}
