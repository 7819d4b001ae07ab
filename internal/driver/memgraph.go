package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	Logger *slog.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}

	logger := slog.Default()
	logger.Info("connected to memgraph", "uri", uri)
	return &MemgraphDriver{Driver: driver, Logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	for _, q := range indexQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Memgraph reports an error when the index already exists.
			d.Logger.Warn("failed to create index", "query", q, "error", err)
		}
	}
	return nil
}
