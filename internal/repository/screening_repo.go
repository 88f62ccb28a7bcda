package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devscreen/internal/model"
)

// ScreeningRepo handles MongoDB operations for screenings
type ScreeningRepo interface {
	Save(ctx context.Context, screening *model.Screening) error
	GetByID(ctx context.Context, id string) (*model.Screening, error)
	ListByClinician(ctx context.Context, clinicianID string, limit int64) ([]*model.Screening, error)
}

type screeningRepo struct {
	collection *mongo.Collection
}

// NewScreeningRepo creates a new screening repository
func NewScreeningRepo(db *mongo.Database) ScreeningRepo {
	return &screeningRepo{
		collection: db.Collection("screenings"),
	}
}

// EnsureIndexes creates the indexes the list and audit queries rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("screenings").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clinicianId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "inputHash", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create screening indexes: %w", err)
	}
	_, err = db.Collection("screening_events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

func (r *screeningRepo) Save(ctx context.Context, screening *model.Screening) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": screening.ID}, screening, opts)
	return err
}

func (r *screeningRepo) GetByID(ctx context.Context, id string) (*model.Screening, error) {
	var screening model.Screening
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&screening)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &screening, nil
}

func (r *screeningRepo) ListByClinician(ctx context.Context, clinicianID string, limit int64) ([]*model.Screening, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"clinicianId": clinicianID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	screenings := make([]*model.Screening, 0)
	if err = cursor.All(ctx, &screenings); err != nil {
		return nil, err
	}
	return screenings, nil
}
