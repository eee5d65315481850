package sessionpool_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuku/sessionpool"
)

func TestSecurityMode_String(t *testing.T) {
	require.Equal(t, "plain", sessionpool.SecurityPlain.String())
	require.Equal(t, "tls", sessionpool.SecurityTLS.String())
	require.Equal(t, "SecurityMode(7)", sessionpool.SecurityMode(7).String())
}

func TestPurity_Shareable(t *testing.T) {
	tests := []struct {
		purity sessionpool.Purity
		want   bool
	}{
		{sessionpool.PuritySelf, false},
		{sessionpool.PurityNew, true},
		{"", true},
		{"anything", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.purity), func(t *testing.T) {
			require.Equal(t, tt.want, tt.purity.Shareable())
		})
	}
}

func TestConnectionConfig(t *testing.T) {
	base := sessionpool.NewConnectionConfig("localhost", 1521, "FREEPDB1", "app", "s3cret")

	t.Run("defaults to plain without server pool", func(t *testing.T) {
		require.Equal(t, sessionpool.SecurityPlain, base.Security)
		require.Nil(t, base.ServerPool)
		require.Equal(t, "localhost:1521", base.Addr())
	})

	t.Run("WithTLS returns a copy", func(t *testing.T) {
		tlsCfg := base.WithTLS()
		require.Equal(t, sessionpool.SecurityTLS, tlsCfg.Security)
		require.Equal(t, sessionpool.SecurityPlain, base.Security)
	})

	t.Run("WithServerPool returns a copy", func(t *testing.T) {
		first := base.WithServerPool("app_pool", sessionpool.PuritySelf)
		second := first.WithServerPool("other_pool", sessionpool.PurityNew)

		require.Nil(t, base.ServerPool)
		require.Equal(t, &sessionpool.ServerPoolMode{Name: "app_pool", Purity: sessionpool.PuritySelf}, first.ServerPool)
		require.Equal(t, &sessionpool.ServerPoolMode{Name: "other_pool", Purity: sessionpool.PurityNew}, second.ServerPool)
	})

	t.Run("Addr brackets IPv6 hosts", func(t *testing.T) {
		cfg := sessionpool.NewConnectionConfig("::1", 5432, "db", "u", "p")
		require.Equal(t, "[::1]:5432", cfg.Addr())
	})

	t.Run("LogValue omits the password", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		logger.Info("connecting", "backend", base.WithServerPool("app_pool", sessionpool.PuritySelf))

		out := buf.String()
		require.NotContains(t, out, "s3cret")
		require.Contains(t, out, `"addr":"localhost:1521"`)
		require.Contains(t, out, `"server_pool":"app_pool"`)
		require.Contains(t, out, `"purity":"self"`)
	})
}
