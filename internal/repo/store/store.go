// Package store selects and opens the persistence backend named by the database URI.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/mongodb"
	"github.com/reelspro/reelspro/internal/infra/sqlitedb"
	"github.com/reelspro/reelspro/internal/repo/account"
	"github.com/reelspro/reelspro/internal/repo/notification"
)

// ErrUnsupportedURI is returned when the database URI names no known backend.
var ErrUnsupportedURI = errors.New("unsupported database uri")

// Backend names.
const (
	BackendMongo  = "mongodb"
	BackendSQLite = "sqlite"
)

// Config holds the database configuration shared by all services.
type Config struct {
	// URI selects the backend: mongodb:// or mongodb+srv:// for MongoDB, sqlite:<path> for SQLite
	URI string `env:"URI"`

	// Name is the MongoDB database name
	Name string `env:"NAME" default:"reelspro"`

	// MaxPoolSize caps pooled MongoDB connections
	MaxPoolSize int64 `env:"MAX_POOL_SIZE" default:"10"`

	// ConnectTimeout bounds connection establishment
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" default:"10s"`
}

// Store bundles the repository factories of one backend.
type Store struct {
	Backend       string
	Accounts      account.RepositoryFactory
	Notifications notification.RepositoryFactory

	close func(ctx context.Context) error
}

// BackendFor returns the backend selected by uri.
func BackendFor(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return BackendMongo, nil
	case sqlitedb.IsURI(uri):
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURI, redact(uri))
	}
}

// Open prepares the backend named by cfg.URI. MongoDB connects lazily on first
// use; SQLite is opened and migrated immediately.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	log := logging.GetLogger("repo.store")

	backend, err := BackendFor(cfg.URI)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMongo:
		if cfg.MaxPoolSize <= 0 {
			return nil, fmt.Errorf("%w: max pool size must be positive", ErrUnsupportedURI)
		}

		cm := mongodb.NewConnectionManager(mongodb.Config{
			URI:            cfg.URI,
			Database:       cfg.Name,
			MaxPoolSize:    uint64(cfg.MaxPoolSize),
			ConnectTimeout: cfg.ConnectTimeout,
		}, nil)

		log.InfoContext(ctx, "store configured", "backend", backend, "database", cfg.Name)

		return &Store{
			Backend:       backend,
			Accounts:      account.MongoAccountRepositoryFactory(cm),
			Notifications: notification.MongoNotificationRepositoryFactory(cm),
			close:         cm.Close,
		}, nil
	default:
		path := sqlitedb.PathFromURI(cfg.URI)

		db, err := sqlitedb.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		log.InfoContext(ctx, "store configured", "backend", backend, "path", path)

		return &Store{
			Backend:       backend,
			Accounts:      account.SQLiteAccountRepositoryFactory(db),
			Notifications: notification.SQLiteNotificationRepositoryFactory(db),
			close: func(context.Context) error {
				return db.Close()
			},
		}, nil
	}
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}

// redact drops credentials from a URI before it is logged or returned.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}

	return uri
}
