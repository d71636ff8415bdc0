package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// defaultTimeout bounds a single repository call.
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
	connectTimeout = 10 * time.Second
	appName        = "traka-launchpad"
)

// Config selects the launchpad database.
type Config struct {
	URI      string
	Database string
	// Timeout bounds connect + ping; zero uses connectTimeout.
	Timeout time.Duration
}

func (c Config) validate() error {
	if c.URI == "" {
		return errors.New("mongo: empty connection uri")
	}
	if c.Database == "" || strings.ContainsAny(c.Database, `/\. "$`) {
		return fmt.Errorf("mongo: invalid database name %q", c.Database)
	}
	return nil
}

// Connect opens the client and pings the primary before handing back the
// launchpad database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = connectTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}
	return client, client.Database(cfg.Database), nil
}
