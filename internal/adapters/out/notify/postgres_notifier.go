package notify

import (
	"context"
	"database/sql"
	"fmt"

	"dispatch/internal/core/ports"

	_ "github.com/lib/pq" // registers the "postgres" driver
)

const DefaultPostgresChannel = "dispatch_events"

// PostgresNotifier sends events with pg_notify so that any LISTEN session on
// the dispatch database receives them. It owns a small database/sql pool on
// the lib/pq driver, separate from the GORM pool of the repositories.
type PostgresNotifier struct {
	db      *sql.DB
	channel string
}

// OpenPostgresNotifier connects with a lib/pq DSN.
func OpenPostgresNotifier(dsn, channel string) (*PostgresNotifier, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open notifier connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	return NewPostgresNotifier(db, channel), nil
}

func NewPostgresNotifier(db *sql.DB, channel string) *PostgresNotifier {
	if channel == "" {
		channel = DefaultPostgresChannel
	}
	return &PostgresNotifier{db: db, channel: channel}
}

func (n *PostgresNotifier) Notify(ctx context.Context, event ports.Event) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	if _, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", event.Type, err)
	}
	return nil
}

func (n *PostgresNotifier) Close() error {
	return n.db.Close()
}
