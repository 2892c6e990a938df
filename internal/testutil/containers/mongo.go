//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/reelspro/reelspro/internal/infra/mongodb"
)

// MongoContainer wraps a testcontainers MongoDB instance.
type MongoContainer struct {
	Container testcontainers.Container
	URI       string
}

// NewMongoContainer starts a new MongoDB container, terminated when the test ends.
func NewMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}

	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	return &MongoContainer{
		Container: container,
		URI:       uri,
	}
}

// ConnectionManager returns a manager on a database private to the calling test.
func (c *MongoContainer) ConnectionManager(t *testing.T, database string) *mongodb.ConnectionManager {
	t.Helper()

	cm := mongodb.NewConnectionManager(mongodb.Config{
		URI:            c.URI,
		Database:       database,
		MaxPoolSize:    10,
		ConnectTimeout: 10 * time.Second,
	}, nil)

	t.Cleanup(func() { _ = cm.Close(context.Background()) })

	return cm
}
