package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

// connection is one long-lived Postgres connection with reconnect-on-demand.
// The query connection runs inside explicit transactions, the queue
// connection in autocommit mode.
type connection struct {
	name        string
	dsn         string
	dialTimeout time.Duration
	logger      arbor.ILogger
	conn        *pgx.Conn
}

func newConnection(name, dsn string, dialTimeout time.Duration, logger arbor.ILogger) *connection {
	return &connection{
		name:        name,
		dsn:         dsn,
		dialTimeout: dialTimeout,
		logger:      logger,
	}
}

// ensure returns a live connection, dialing with connect-class retry when
// the previous one is gone
func (c *connection) ensure(ctx context.Context) (*pgx.Conn, error) {
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}

	err := common.Retry(c.logger, "connect "+c.name, common.ConnectRetryBase, common.ConnectRetryTries, func() error {
		dialCtx := ctx
		if c.dialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, c.dialTimeout)
			defer cancel()
		}

		c.logger.Info().Str("connection", c.name).Msg("Connecting to PostgreSQL")
		conn, err := pgx.Connect(dialCtx, c.dsn)
		if err != nil {
			return err
		}
		if err := conn.Ping(dialCtx); err != nil {
			_ = conn.Close(dialCtx)
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s connection: %w", c.name, err)
	}
	return c.conn, nil
}

// reset drops the connection so the next use reconnects
func (c *connection) reset(ctx context.Context) {
	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}
}

func (c *connection) close(ctx context.Context) {
	c.reset(ctx)
}
