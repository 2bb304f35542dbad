package tags

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/pkg/errors"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "tags"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource looks tags up in a table with the columns tag_key, tag_value and
// tag_kind.
type SQLSource struct {
	db      *sql.DB
	driver  string
	table   string
	timeout time.Duration
	logger  *slog.Logger
}

type SQLOption func(*SQLSource)

func WithQueryTimeout(d time.Duration) SQLOption {
	return func(s *SQLSource) { s.timeout = d }
}

func WithSQLLogger(logger *slog.Logger) SQLOption {
	return func(s *SQLSource) { s.logger = logger }
}

// DriverName maps a configured database type to a registered driver name.
// "sqlite" is the pure Go driver; "sqlite3" needs cgo.
func DriverName(dbType string) (string, error) {
	switch dbType {
	case "", "sqlite":
		return "sqlite", nil
	case "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	}
	return "", errors.Errorf("unsupported database type: %s", dbType)
}

// OpenSQL connects and pings the database. The table is not created; call
// EnsureSchema for that.
func OpenSQL(dbType, dsn, table string, opts ...SQLOption) (*SQLSource, error) {
	driver, err := DriverName(dbType)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect")
	}

	s := &SQLSource{
		db:      db,
		driver:  driver,
		table:   table,
		timeout: 5 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := s.context()
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s.logger.Debug("tag database opened", "driver", driver, "table", table)
	return s, nil
}

// EnsureSchema creates the tag table if it does not exist yet.
func (s *SQLSource) EnsureSchema() error {
	var ddl string
	switch s.driver {
	case "sqlserver":
		ddl = fmt.Sprintf(`IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (tag_key NVARCHAR(255) PRIMARY KEY, tag_value NVARCHAR(MAX) NOT NULL, tag_kind NVARCHAR(16) NOT NULL DEFAULT 'string')`, s.table)
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (tag_key VARCHAR(255) PRIMARY KEY, tag_value TEXT NOT NULL, tag_kind VARCHAR(16) NOT NULL DEFAULT 'string')`, s.table)
	}

	ctx, cancel := s.context()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrapf(err, "create table %s", s.table)
	}
	return nil
}

func (s *SQLSource) Lookup(key string) (interface{}, bool, error) {
	query := fmt.Sprintf("SELECT tag_value, tag_kind FROM %s WHERE tag_key = %s", s.table, s.placeholder(1))

	ctx, cancel := s.context()
	defer cancel()

	var text, kind string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&text, &kind)
	if err == sql.ErrNoRows {
		s.logger.Debug("tag miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "query failed")
	}

	v, err := decode(text, kind)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode %s value %q", kind, text)
	}
	s.logger.Debug("tag hit", "key", key, "kind", kind)
	return v, true, nil
}

// Put inserts or replaces one tag.
func (s *SQLSource) Put(key string, value interface{}) error {
	text, kind := encode(value)
	return s.transaction(func(ctx context.Context, tx *sql.Tx) error {
		del := fmt.Sprintf("DELETE FROM %s WHERE tag_key = %s", s.table, s.placeholder(1))
		if _, err := tx.ExecContext(ctx, del, key); err != nil {
			return err
		}
		ins := fmt.Sprintf("INSERT INTO %s (tag_key, tag_value, tag_kind) VALUES (%s, %s, %s)",
			s.table, s.placeholder(1), s.placeholder(2), s.placeholder(3))
		_, err := tx.ExecContext(ctx, ins, key, text, kind)
		return err
	})
}

// Close closes the underlying connection pool.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// transaction runs fn within a database transaction
func (s *SQLSource) transaction(fn func(context.Context, *sql.Tx) error) error {
	ctx, cancel := s.context()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(rbErr, "transaction failed: %v, rollback failed", err)
		}
		return errors.Wrap(err, "transaction failed")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (s *SQLSource) placeholder(n int) string {
	switch s.driver {
	case "postgres":
		return fmt.Sprintf("$%d", n)
	case "sqlserver":
		return fmt.Sprintf("@p%d", n)
	}
	return "?"
}

func (s *SQLSource) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
