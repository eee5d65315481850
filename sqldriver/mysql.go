package sqldriver

import (
	"database/sql/driver"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/yuku/sessionpool"
)

// Session variables set on MySQL sessions requested from a server pool.
const (
	MySQLVarServerPoolName   = "@server_pool_name"
	MySQLVarServerPoolPurity = "@server_pool_purity"
)

// MySQL returns a Driver for MySQL servers using go-sql-driver/mysql.
func MySQL() *Driver {
	return New(func(cfg sessionpool.ConnectionConfig) (driver.Connector, error) {
		return mysql.NewConnector(MySQLConfig(cfg))
	})
}

// MySQLConfig translates cfg into a go-sql-driver config. TLS is negotiated in
// the handshake, before authentication. The server pool request is recorded
// in session variables set right after connecting.
func MySQLConfig(cfg sessionpool.ConnectionConfig) *mysql.Config {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Service

	if cfg.Security == sessionpool.SecurityTLS {
		mc.TLSConfig = "true"
	}

	if cfg.ServerPool != nil {
		mc.Params = map[string]string{
			MySQLVarServerPoolName:   quoteMySQL(cfg.ServerPool.Name),
			MySQLVarServerPoolPurity: quoteMySQL(string(cfg.ServerPool.Purity)),
		}
	}

	return mc
}

var mysqlQuoter = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func quoteMySQL(s string) string {
	return "'" + mysqlQuoter.Replace(s) + "'"
}
