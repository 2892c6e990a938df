package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"golang.org/x/sync/singleflight"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
)

// Config holds the MongoDB connection parameters.
type Config struct {
	// URI is the MongoDB connection string
	URI string
	// Database is the database holding the users and notifications collections
	Database string
	// MaxPoolSize caps the number of pooled connections
	MaxPoolSize uint64
	// ConnectTimeout bounds establishing and verifying a connection
	ConnectTimeout time.Duration
}

// Dialer establishes a new client. It is replaced in tests.
type Dialer func(ctx context.Context, cfg Config) (*mongo.Client, error)

// ConnectionManager owns the process-wide MongoDB client. The client is created
// on first use; concurrent first callers share a single connection attempt, and
// a failed attempt leaves nothing memoised so the next call retries.
type ConnectionManager struct {
	cfg  Config
	dial Dialer
	log  logging.Logger

	group singleflight.Group

	m      sync.RWMutex
	client *mongo.Client

	indexLock sync.Mutex
	indexed   map[string]bool
}

// NewConnectionManager creates a ConnectionManager. A nil dial uses Dial.
func NewConnectionManager(cfg Config, dial Dialer) *ConnectionManager {
	if dial == nil {
		dial = Dial
	}

	return &ConnectionManager{
		cfg:     cfg,
		dial:    dial,
		indexed: make(map[string]bool),
		log: logging.GetLogger("infra.mongodb.connection_manager").With(
			logging.Group("db", "database", cfg.Database, "maxPoolSize", cfg.MaxPoolSize),
		),
	}
}

// Dial connects to MongoDB and verifies the connection with a ping.
func Dial(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))

		return nil, fmt.Errorf("ping: %w", err)
	}

	return client, nil
}

// Client returns the shared client, connecting on first use.
// Connection failures are reported as domain.ErrStoreUnavailable.
func (cm *ConnectionManager) Client(ctx context.Context) (*mongo.Client, error) {
	cm.m.RLock()
	client := cm.client
	cm.m.RUnlock()

	if client != nil {
		return client, nil
	}

	result, err, shared := cm.group.Do("connect", func() (any, error) {
		cm.m.RLock()
		existing := cm.client
		cm.m.RUnlock()

		if existing != nil {
			return existing, nil
		}

		// The attempt is shared, so it must not die with the first caller's context.
		client, err := cm.dial(context.WithoutCancel(ctx), cm.cfg)
		if err != nil {
			return nil, err
		}

		cm.m.Lock()
		cm.client = client
		cm.m.Unlock()

		cm.log.InfoContext(ctx, "database connected")

		return client, nil
	})
	if err != nil {
		cm.log.ErrorContext(ctx, "database connect failed", logging.Err(err), "shared", shared)

		return nil, errors.Join(domain.ErrStoreUnavailable, fmt.Errorf("check database connection: %w", err))
	}

	//nolint:forcetypeassert
	return result.(*mongo.Client), nil
}

// Database returns the configured database on the shared client.
func (cm *ConnectionManager) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := cm.Client(ctx)
	if err != nil {
		return nil, err
	}

	return client.Database(cm.cfg.Database), nil
}

// Collection returns the named collection of the configured database.
func (cm *ConnectionManager) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := cm.Database(ctx)
	if err != nil {
		return nil, err
	}

	return db.Collection(name), nil
}

// IndexedCollection returns the named collection after creating its indexes.
// Index creation runs until it first succeeds for a collection, so callers never
// write to a collection whose constraints do not exist yet.
func (cm *ConnectionManager) IndexedCollection(
	ctx context.Context,
	name string,
	models ...mongo.IndexModel,
) (*mongo.Collection, error) {
	coll, err := cm.Collection(ctx, name)
	if err != nil {
		return nil, err
	}

	cm.indexLock.Lock()
	defer cm.indexLock.Unlock()

	if cm.indexed[name] || len(models) == 0 {
		return coll, nil
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return nil, fmt.Errorf("create indexes on %s: %w", name, cm.Classify(ctx, coll.Database().Client(), err))
	}

	cm.indexed[name] = true

	cm.log.DebugContext(ctx, "indexes ensured", "collection", name, "count", len(models))

	return coll, nil
}

// Reset disconnects and forgets the current client so the next call reconnects.
func (cm *ConnectionManager) Reset(ctx context.Context) error {
	cm.m.Lock()
	client := cm.client
	cm.client = nil
	cm.m.Unlock()

	if client == nil {
		return nil
	}

	cm.log.WarnContext(ctx, "database connection reset")

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	return nil
}

// Classify converts driver errors caused by connectivity loss into
// domain.ErrStoreUnavailable and resets the memoised client if it is still the
// failed one. A client that was already replaced is left alone. Other errors
// are returned unchanged.
func (cm *ConnectionManager) Classify(ctx context.Context, failed *mongo.Client, err error) error {
	if err == nil || !IsConnectivityError(err) {
		return err
	}

	if resetErr := cm.resetClient(context.WithoutCancel(ctx), failed); resetErr != nil {
		cm.log.WarnContext(ctx, "database reset failed", logging.Err(resetErr))
	}

	return errors.Join(domain.ErrStoreUnavailable, err)
}

// resetClient forgets failed only while it is the memoised client.
func (cm *ConnectionManager) resetClient(ctx context.Context, failed *mongo.Client) error {
	cm.m.Lock()
	if failed == nil || cm.client != failed {
		cm.m.Unlock()

		return nil
	}

	cm.client = nil
	cm.m.Unlock()

	cm.log.WarnContext(ctx, "database connection reset after failure")

	if err := failed.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	return nil
}

// IsConnectivityError reports whether err indicates that the server could not be reached.
func IsConnectivityError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// Connected reports whether a client is currently memoised.
func (cm *ConnectionManager) Connected() bool {
	cm.m.RLock()
	defer cm.m.RUnlock()

	return cm.client != nil
}

// Close disconnects the shared client, if any.
func (cm *ConnectionManager) Close(ctx context.Context) error {
	return cm.Reset(ctx)
}
