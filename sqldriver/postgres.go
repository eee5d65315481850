package sqldriver

import (
	"database/sql/driver"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/yuku/sessionpool"
)

// Startup parameters carrying the server pool request on PostgreSQL.
const (
	PostgresParamServerPoolName   = "server_pool.name"
	PostgresParamServerPoolPurity = "server_pool.purity"
)

// Postgres returns a Driver for PostgreSQL servers using lib/pq.
func Postgres() *Driver {
	return New(func(cfg sessionpool.ConnectionConfig) (driver.Connector, error) {
		return pq.NewConnector(PostgresDSN(cfg))
	})
}

// PostgresDSN translates cfg into a lib/pq key/value connection string.
func PostgresDSN(cfg sessionpool.ConnectionConfig) string {
	sslmode := "disable"
	if cfg.Security == sessionpool.SecurityTLS {
		sslmode = "require"
	}

	pairs := [][2]string{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"dbname", cfg.Service},
		{"user", cfg.Username},
		{"password", cfg.Password},
		{"sslmode", sslmode},
	}
	if cfg.ServerPool != nil {
		pairs = append(pairs,
			[2]string{PostgresParamServerPoolName, cfg.ServerPool.Name},
			[2]string{PostgresParamServerPoolPurity, string(cfg.ServerPool.Purity)})
	}

	var b strings.Builder
	for i, kv := range pairs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(quotePQ(kv[1]))
	}
	return b.String()
}

var pqQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quotePQ(s string) string {
	return "'" + pqQuoter.Replace(s) + "'"
}
