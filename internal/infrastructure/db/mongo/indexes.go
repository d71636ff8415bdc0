package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes every repository relies on, including the
// unique constraints on user email and (user, tool) favorites.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	repos := map[string]indexer{
		collectionUsers:         NewUserRepository(db),
		collectionTools:         NewToolRepository(db),
		collectionFavorites:     NewFavoriteRepository(db),
		collectionLaunches:      NewLaunchRepository(db),
		collectionAnnouncements: NewAnnouncementRepository(db),
	}
	for name, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	return nil
}
