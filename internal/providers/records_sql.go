package providers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"nf_gateway/internal/config"
)

// SQLRecordStore implements RecordStore on a relational table keyed by one
// column. Every column of the matching row becomes a field of Record.Data.
type SQLRecordStore struct {
	conn  *sqlx.DB
	query string
}

// NewSQLRecordStore connects to the database and prepares the lookup query.
// Table and key column names are validated identifiers by the time they get
// here, so they are spliced into the statement.
func NewSQLRecordStore(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
	if !config.ValidIdentifier(cfg.Table) || !config.ValidIdentifier(cfg.KeyField) {
		return nil, fmt.Errorf("invalid table or key column: %q.%q", cfg.Table, cfg.KeyField)
	}

	conn, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(1 * time.Minute)

	query := conn.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", cfg.Table, cfg.KeyField))

	return &SQLRecordStore{conn: conn, query: query}, nil
}

// Name returns the provider name
func (s *SQLRecordStore) Name() string {
	return config.RecordsRelational
}

// Get returns the row whose key column equals key
func (s *SQLRecordStore) Get(ctx context.Context, key string) (*Record, error) {
	row := make(map[string]any)
	err := s.conn.QueryRowxContext(ctx, s.query, key).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	// Text columns come back as []byte from some drivers
	for col, val := range row {
		if b, ok := val.([]byte); ok {
			row[col] = string(b)
		}
	}

	return &Record{Key: key, Data: row}, nil
}

// Ping checks if the database is reachable
func (s *SQLRecordStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLRecordStore) Close() error {
	return s.conn.Close()
}
