package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

const collectionAnnouncements = "announcements"

type AnnouncementRepository struct {
	col *mongo.Collection
}

func NewAnnouncementRepository(db *mongo.Database) *AnnouncementRepository {
	return &AnnouncementRepository{col: db.Collection(collectionAnnouncements)}
}

type announcementDoc struct {
	ID        string     `bson:"_id"`
	Title     string     `bson:"title"`
	Content   string     `bson:"content"`
	Type      string     `bson:"type"`
	IsActive  bool       `bson:"is_active"`
	ExpiresAt *time.Time `bson:"expires_at"`
	CreatedBy string     `bson:"created_by"`
	CreatedAt time.Time  `bson:"created_at"`
}

func announcementToDoc(a *domain.Announcement) announcementDoc {
	return announcementDoc{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Type:      string(a.Type),
		IsActive:  a.IsActive,
		ExpiresAt: a.ExpiresAt,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
}

func (d *announcementDoc) toDomain() *domain.Announcement {
	a := &domain.Announcement{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Type:      domain.AnnouncementType(d.Type),
		IsActive:  d.IsActive,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.ExpiresAt != nil {
		exp := d.ExpiresAt.UTC()
		a.ExpiresAt = &exp
	}
	return a
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, announcementToDoc(a)); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*domain.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc announcementDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AnnouncementRepository) List(ctx context.Context, visibleAt *time.Time) ([]*domain.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if visibleAt != nil {
		filter = bson.M{
			"is_active": true,
			"$or": bson.A{
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": visibleAt.UTC()}},
			},
		}
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	var docs []announcementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode announcements: %w", err)
	}
	out := make([]*domain.Announcement, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, a *domain.Announcement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, announcementToDoc(a))
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAnnouncementNotFound
	}
	return nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAnnouncementNotFound
	}
	return nil
}

func (r *AnnouncementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}
