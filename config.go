package sessionpool

import (
	"log/slog"
	"net"
	"strconv"
)

// SecurityMode selects how the transport to the backend is secured.
type SecurityMode int

const (
	// SecurityPlain opens an unencrypted transport.
	SecurityPlain SecurityMode = iota
	// SecurityTLS requires the transport to negotiate TLS before authentication.
	SecurityTLS
)

func (m SecurityMode) String() string {
	switch m {
	case SecurityPlain:
		return "plain"
	case SecurityTLS:
		return "tls"
	default:
		return "SecurityMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Purity is the session affinity requested from a server-side pool.
type Purity string

const (
	// PuritySelf binds the server session to the current logical client session.
	PuritySelf Purity = "self"
	// PurityNew requests a fresh server session that may be shared afterwards.
	PurityNew Purity = "new"
)

// Shareable reports whether a server session obtained with this purity may be
// handed to other clients. Every purity except PuritySelf is shareable.
func (p Purity) Shareable() bool {
	return p != PuritySelf
}

// ServerPoolMode asks the backend for a session from a named server-side pool
// instead of a dedicated session.
type ServerPoolMode struct {
	Name   string
	Purity Purity
}

// ConnectionConfig describes how to reach the backend.
//
// A ConnectionConfig is treated as immutable once handed to a PoolBuilder or a
// ConnectionManager: both keep their own copy and share it read-only between
// concurrent Create calls.
type ConnectionConfig struct {
	// Host is the backend host name or IP address.
	Host string

	// Port is the backend TCP port.
	Port int

	// Service identifies the database service (service name or database name,
	// depending on the driver).
	Service string

	// Username and Password are the session credentials.
	Username string
	Password string

	// Security selects plain or TLS transport.
	Security SecurityMode

	// ServerPool, when set, requests the session from a server-side pool.
	ServerPool *ServerPoolMode
}

// NewConnectionConfig returns a plain-transport config without server pooling.
func NewConnectionConfig(host string, port int, service, username, password string) ConnectionConfig {
	return ConnectionConfig{
		Host:     host,
		Port:     port,
		Service:  service,
		Username: username,
		Password: password,
		Security: SecurityPlain,
	}
}

// WithTLS returns a copy of c that requires TLS.
func (c ConnectionConfig) WithTLS() ConnectionConfig {
	c = c.clone()
	c.Security = SecurityTLS
	return c
}

// WithServerPool returns a copy of c that requests sessions from the named
// server-side pool with the given purity.
func (c ConnectionConfig) WithServerPool(name string, purity Purity) ConnectionConfig {
	c = c.clone()
	c.ServerPool = &ServerPoolMode{Name: name, Purity: purity}
	return c
}

// Addr returns the host:port address of the backend.
func (c ConnectionConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogValue implements slog.LogValuer. The password is never logged.
func (c ConnectionConfig) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("service", c.Service),
		slog.String("user", c.Username),
		slog.String("security", c.Security.String()),
	}
	if c.ServerPool != nil {
		attrs = append(attrs,
			slog.String("server_pool", c.ServerPool.Name),
			slog.String("purity", string(c.ServerPool.Purity)))
	}
	return slog.GroupValue(attrs...)
}

// clone deep-copies c so the copy shares no pointers with the original.
func (c ConnectionConfig) clone() ConnectionConfig {
	if c.ServerPool != nil {
		sp := *c.ServerPool
		c.ServerPool = &sp
	}
	return c
}
