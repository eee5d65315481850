// Package pgxdriver opens sessionpool sessions to PostgreSQL with pgx.
//
// The driver maps a sessionpool.ConnectionConfig onto a pgx.ConnConfig:
//
//   - Service becomes the database name.
//   - SecurityTLS selects sslmode=require, so the SSLRequest handshake happens
//     before authentication and there is no plaintext fallback.
//     SecurityPlain selects sslmode=disable.
//   - A server pool is requested through the startup parameters
//     server_pool.name and server_pool.purity, passed verbatim for a pooling
//     proxy in front of the server to act on.
//
// # Usage
//
//	pool, err := sessionpool.NewPoolBuilder(cfg, pgxdriver.New()).Build()
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	obj, err := pool.Get(ctx)
//	if err != nil {
//		return err
//	}
//	defer obj.Release()
//
//	conn := obj.Session().(*pgxdriver.Session).Conn()
//	if _, err := conn.Exec(ctx, "BEGIN"); err != nil {
//		return err
//	}
//	obj.Conn().MarkDirty()
//
// Sessions that were marked dirty are rolled back before they are reused.
package pgxdriver
