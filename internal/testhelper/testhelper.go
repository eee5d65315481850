// Package testhelper provides environment-driven backends for integration tests.
package testhelper

import (
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/yuku/sessionpool"
)

// PostgresConfig returns the connection config described by DATABASE_URL.
// The test is skipped in short mode or when DATABASE_URL is not set.
func PostgresConfig(t *testing.T) sessionpool.ConnectionConfig {
	t.Helper()

	connString := lookup(t, "DATABASE_URL")
	parsed, err := pgx.ParseConfig(connString)
	if err != nil {
		t.Fatalf("failed to parse DATABASE_URL: %v", err)
	}

	cfg := sessionpool.NewConnectionConfig(parsed.Host, int(parsed.Port), parsed.Database, parsed.User, parsed.Password)
	if parsed.TLSConfig != nil {
		cfg = cfg.WithTLS()
	}
	return cfg
}

// MySQLConfig returns the connection config described by MYSQL_DSN, a
// go-sql-driver DSN such as "root:secret@tcp(localhost:3306)/app". The test is
// skipped in short mode or when MYSQL_DSN is not set.
func MySQLConfig(t *testing.T) sessionpool.ConnectionConfig {
	t.Helper()

	dsn := lookup(t, "MYSQL_DSN")
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("failed to parse MYSQL_DSN: %v", err)
	}

	host, portStr, err := net.SplitHostPort(parsed.Addr)
	if err != nil {
		t.Fatalf("failed to split MYSQL_DSN address %q: %v", parsed.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("invalid port in MYSQL_DSN: %v", err)
	}

	cfg := sessionpool.NewConnectionConfig(host, port, parsed.DBName, parsed.User, parsed.Passwd)
	if parsed.TLSConfig != "" && parsed.TLSConfig != "false" {
		cfg = cfg.WithTLS()
	}
	return cfg
}

func lookup(t *testing.T, key string) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s is not set", key)
	}
	return value
}
