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
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const collectionTools = "tools"

type ToolRepository struct {
	col *mongo.Collection
}

func NewToolRepository(db *mongo.Database) *ToolRepository {
	return &ToolRepository{col: db.Collection(collectionTools)}
}

type toolDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Description  string    `bson:"description"`
	IconName     string    `bson:"icon_name"`
	Color        string    `bson:"color,omitempty"`
	LaunchType   string    `bson:"launch_type"`
	LaunchURL    string    `bson:"launch_url,omitempty"`
	Category     string    `bson:"category"`
	Version      string    `bson:"version,omitempty"`
	SortOrder    int       `bson:"sort_order"`
	IsActive     bool      `bson:"is_active"`
	AllowedRoles []string  `bson:"allowed_roles,omitempty"`
	HelpText     string    `bson:"help_text,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toolToDoc(t *domain.Tool) toolDoc {
	return toolDoc{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		IconName:     t.IconName,
		Color:        t.Color,
		LaunchType:   string(t.LaunchType),
		LaunchURL:    t.LaunchURL,
		Category:     t.Category,
		Version:      t.Version,
		SortOrder:    t.SortOrder,
		IsActive:     t.IsActive,
		AllowedRoles: t.AllowedRoles.Strings(),
		HelpText:     t.HelpText,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// toDomain keeps stored role names that are no longer in the enumeration out
// of the set instead of failing the read.
func (d *toolDoc) toDomain() *domain.Tool {
	var roles domain.RoleSet
	for _, name := range d.AllowedRoles {
		if r, err := domain.ParseRole(name); err == nil && !roles.Contains(r) {
			roles = append(roles, r)
		}
	}
	return &domain.Tool{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		IconName:     d.IconName,
		Color:        d.Color,
		LaunchType:   domain.LaunchType(d.LaunchType),
		LaunchURL:    d.LaunchURL,
		Category:     d.Category,
		Version:      d.Version,
		SortOrder:    d.SortOrder,
		IsActive:     d.IsActive,
		AllowedRoles: roles,
		HelpText:     d.HelpText,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *ToolRepository) FindByID(ctx context.Context, id string) (*domain.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc toolDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrToolNotFound
		}
		return nil, fmt.Errorf("find tool: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ToolRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	var docs []toolDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tools: %w", err)
	}
	out := make([]*domain.Tool, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toolToDoc(tool)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrToolExists
		}
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

func (r *ToolRepository) Update(ctx context.Context, id string, patch ports.ToolPatch) (*domain.Tool, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IconName != nil {
		set["icon_name"] = *patch.IconName
	}
	if patch.Color != nil {
		set["color"] = *patch.Color
	}
	if patch.LaunchType != nil {
		set["launch_type"] = string(*patch.LaunchType)
	}
	if patch.LaunchURL != nil {
		set["launch_url"] = *patch.LaunchURL
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Version != nil {
		set["version"] = *patch.Version
	}
	if patch.SortOrder != nil {
		set["sort_order"] = *patch.SortOrder
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	if patch.AllowedRoles != nil {
		set["allowed_roles"] = patch.AllowedRoles.Strings()
	}
	if patch.HelpText != nil {
		set["help_text"] = *patch.HelpText
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc toolDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrToolNotFound
		}
		return nil, fmt.Errorf("update tool: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}

func (r *ToolRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "sort_order", Value: 1}}},
	})
	return err
}
