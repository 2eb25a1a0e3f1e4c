package mssql

import (
	"fmt"
	"net/url"
)

// Config contains SQL Server-specific connection options. Only SQL
// authentication is supported here; federated auth belongs to the
// hosting platform, not the authoring core.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// buildConnectionString builds a sqlserver:// URL for go-mssqldb.
func buildConnectionString(cfg *Config) string {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort()
	}

	query := url.Values{}
	query.Add("database", cfg.Database)
	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		port,
		query.Encode(),
	)
}
