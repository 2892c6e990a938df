package sqlitedb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/reelspro/reelspro/internal/infra/logging"
)

// URIScheme prefixes connection strings that select the embedded backend.
const URIScheme = "sqlite:"

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
//
//nolint:gochecknoglobals
var migrateLock sync.Mutex

// DB is an SQLite handle shared by the repositories. go-sqlite does not support
// concurrent writers, so writes are serialised through WriteLock.
type DB struct {
	*sql.DB

	WriteLock sync.Mutex
}

// IsURI reports whether uri selects the embedded backend.
func IsURI(uri string) bool {
	return strings.HasPrefix(uri, URIScheme)
}

// PathFromURI extracts the database file path from an "sqlite:<path>" URI.
func PathFromURI(uri string) string {
	return strings.TrimPrefix(strings.TrimPrefix(uri, URIScheme), "//")
}

// Open opens (creating if needed) the database at path and applies all migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	log := logging.GetLogger("infra.sqlitedb").With(logging.Group("db", "path", path))

	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{"busy_timeout(5000)", "foreign_keys(1)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrate(ctx, db, log); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.DebugContext(ctx, "database opened")

	return &DB{DB: db}, nil
}

func migrate(ctx context.Context, db *sql.DB, log logging.Logger) error {
	migrateLock.Lock()
	defer migrateLock.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

type gooseLogger struct {
	log logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	panic(fmt.Sprintf(format, v...))
}
