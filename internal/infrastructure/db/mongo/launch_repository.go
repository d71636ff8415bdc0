package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const collectionLaunches = "tool_launches"

// LaunchRepository is the append-only launch ledger.
type LaunchRepository struct {
	col *mongo.Collection
}

func NewLaunchRepository(db *mongo.Database) *LaunchRepository {
	return &LaunchRepository{col: db.Collection(collectionLaunches)}
}

type launchDoc struct {
	UserID     string    `bson:"user_id"`
	ToolID     string    `bson:"tool_id"`
	LaunchedAt time.Time `bson:"launched_at"`
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (r *LaunchRepository) Record(ctx context.Context, l *domain.ToolLaunch) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, launchDoc{UserID: l.UserID, ToolID: l.ToolID, LaunchedAt: l.LaunchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

func (r *LaunchRepository) CountByTool(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "$tool_id")
}

func (r *LaunchRepository) CountByUser(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "$user_id")
}

func (r *LaunchRepository) countBy(ctx context.Context, field string) (map[string]int64, error) {
	groups, err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: field}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(groups))
	for _, g := range groups {
		out[g.Key] = g.Count
	}
	return out, nil
}

// Count returns launches at or after since; the zero time counts everything.
func (r *LaunchRepository) Count(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, sinceFilter(since))
	if err != nil {
		return 0, fmt.Errorf("count launches: %w", err)
	}
	return n, nil
}

func (r *LaunchRepository) DistinctUsers(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids, err := r.col.Distinct(ctx, "user_id", sinceFilter(since))
	if err != nil {
		return 0, fmt.Errorf("distinct launch users: %w", err)
	}
	return int64(len(ids)), nil
}

func (r *LaunchRepository) TopTools(ctx context.Context, limit int) ([]ports.ToolLaunchCount, error) {
	groups, err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$tool_id"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]ports.ToolLaunchCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, ports.ToolLaunchCount{ToolID: g.Key, Launches: g.Count})
	}
	return out, nil
}

// Daily buckets launches since the given time by UTC calendar day.
func (r *LaunchRepository) Daily(ctx context.Context, since time.Time) ([]ports.DailyLaunchCount, error) {
	groups, err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: sinceFilter(since)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$launched_at"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]ports.DailyLaunchCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, ports.DailyLaunchCount{Date: g.Key, Launches: g.Count})
	}
	return out, nil
}

func (r *LaunchRepository) Recent(ctx context.Context, limit int) ([]*domain.ToolLaunch, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "launched_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent launches: %w", err)
	}
	var docs []launchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode launches: %w", err)
	}
	out := make([]*domain.ToolLaunch, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.ToolLaunch{UserID: d.UserID, ToolID: d.ToolID, LaunchedAt: d.LaunchedAt.UTC()})
	}
	return out, nil
}

func (r *LaunchRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]groupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate launches: %w", err)
	}
	var out []groupCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode launch aggregate: %w", err)
	}
	return out, nil
}

func sinceFilter(since time.Time) bson.M {
	if since.IsZero() {
		return bson.M{}
	}
	return bson.M{"launched_at": bson.M{"$gte": since.UTC()}}
}

func (r *LaunchRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "launched_at", Value: -1}}},
		{Keys: bson.D{{Key: "tool_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}
