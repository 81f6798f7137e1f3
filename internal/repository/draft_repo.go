package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindfullens/internal/model"
)

// DraftRepo handles MongoDB operations for auto-saved drafts
type DraftRepo interface {
	Save(ctx context.Context, draft *model.Draft) error
	Get(ctx context.Context, ownerID string) (*model.Draft, error)
	Delete(ctx context.Context, ownerID string) error
}

type draftRepo struct {
	collection *mongo.Collection
}

// NewDraftRepo creates a new draft repository
func NewDraftRepo(db *mongo.Database) DraftRepo {
	return &draftRepo{
		collection: db.Collection("drafts"),
	}
}

// Save keeps one document per owner, last write wins
func (r *draftRepo) Save(ctx context.Context, draft *model.Draft) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"ownerId": draft.OwnerID}, draft, opts)
	return err
}

func (r *draftRepo) Get(ctx context.Context, ownerID string) (*model.Draft, error) {
	var draft model.Draft
	err := r.collection.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&draft)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) Delete(ctx context.Context, ownerID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"ownerId": ownerID})
	return err
}

// EnsureIndexes creates the unique owner index
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("drafts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
