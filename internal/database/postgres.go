package database

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a keyword/value connection string. Local
// deployments default to sslmode=disable and the portal's application name.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	params := []string{
		"host=" + pgValue(cmpOr(cfg.Host, "localhost")),
		fmt.Sprintf("port=%d", port),
		"user=" + pgValue(cfg.User),
		"dbname=" + pgValue(cfg.Name),
	}
	if cfg.Password != "" {
		params = append(params, "password="+pgValue(cfg.Password))
	}

	options := map[string]string{
		"sslmode":          "disable",
		"application_name": "campusfix",
	}
	maps.Copy(options, cfg.Options)
	for _, key := range slices.Sorted(maps.Keys(options)) {
		params = append(params, key+"="+pgValue(options[key]))
	}

	return strings.Join(params, " "), nil
}

// pgValue quotes a keyword value when it is empty or holds spaces, quotes or
// backslashes.
func pgValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

func cmpOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
