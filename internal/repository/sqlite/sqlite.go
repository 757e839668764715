// Package sqlite implements the repository interfaces on an embedded SQLite
// database via the pure-Go modernc.org/sqlite driver (no CGo, so the binary
// cross-compiles anywhere Go does).
//
// Schema management is handled by goose migrations embedded in the binary;
// see the migrations directory. Full-text article search uses an FTS5 index
// over title+intro, kept in sync with the articles table by triggers, so
// ranked search works without an external search engine.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	// Registers the "sqlite" driver with database/sql at init time.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// maxOpenConns bounds the pool. The workload is many short queries from a
// request-per-invocation server; a handful of connections is plenty and a
// stalled database can't eat the process's file descriptors.
const maxOpenConns = 5

// DB wraps the sql.DB pool. The per-entity stores returned by Users,
// Articles, and TeamMembers share this pool and implement the repository
// interfaces. Construct with New, close with Close; the server owns the
// lifecycle.
type DB struct {
	conn *sql.DB
}

// UserStore, ArticleStore, and TeamMemberStore are lightweight views over
// the shared pool; creating one allocates nothing but a struct, so the
// accessors below can be called per use.
type UserStore struct{ conn *sql.DB }

type ArticleStore struct{ conn *sql.DB }

type TeamMemberStore struct{ conn *sql.DB }

// Users returns the credential store view of the database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Articles returns the article store view of the database.
func (db *DB) Articles() *ArticleStore {
	return &ArticleStore{conn: db.conn}
}

// TeamMembers returns the roster store view of the database.
func (db *DB) TeamMembers() *TeamMemberStore {
	return &TeamMemberStore{conn: db.conn}
}

// New opens the database at dbPath (use ":memory:" in tests), applies the
// pragmas the app depends on, bounds the pool, and runs any pending
// migrations.
//
// Pragmas travel in the DSN so they apply to every pooled connection, not
// just the one that happens to run an Exec. WAL lets reads proceed while a
// write transaction is open; foreign keys are off by default in SQLite and
// the cascade deletes on image tables depend on them.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every new connection to ":memory:" gets its own empty database,
		// so the pool must stay at a single connection.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

// PingContext checks that the database is reachable; used by the health
// endpoint.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies the embedded goose migrations. goose records applied
// versions in its own table, so this is safe to run on every start.
func (db *DB) migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error or panic and
// committing otherwise. Every multi-statement write goes through here so a
// partial failure never leaves orphaned rows.
func inTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}
