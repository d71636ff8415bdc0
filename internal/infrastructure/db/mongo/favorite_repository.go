package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionFavorites = "favorites"

// FavoriteRepository stores pins; a unique (user_id, tool_id) index keeps
// concurrent toggles from creating duplicates.
type FavoriteRepository struct {
	col *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{col: db.Collection(collectionFavorites)}
}

type favoriteDoc struct {
	UserID    string    `bson:"user_id"`
	ToolID    string    `bson:"tool_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Toggle removes an existing pin or creates a missing one. Losing an insert
// race to another toggle still leaves exactly one pin, reported as pinned.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, toolID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key := bson.M{"user_id": userID, "tool_id": toolID}
	res, err := r.col.DeleteOne(ctx, key)
	if err != nil {
		return false, fmt.Errorf("unpin tool: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = r.col.InsertOne(ctx, favoriteDoc{UserID: userID, ToolID: toolID, CreatedAt: time.Now().UTC()})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("pin tool: %w", err)
	}
	return true, nil
}

func (r *FavoriteRepository) ToolIDs(ctx context.Context, userID string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, options.Find().SetProjection(bson.M{"tool_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	var docs []favoriteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	out := make(map[string]bool, len(docs))
	for _, d := range docs {
		out[d.ToolID] = true
	}
	return out, nil
}

func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tool_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
