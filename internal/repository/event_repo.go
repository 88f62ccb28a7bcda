package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"devscreen/internal/model"
)

// EventRepo records per-screening usage events
type EventRepo interface {
	Record(ctx context.Context, event *model.ScreeningEvent) error
}

type eventRepo struct {
	collection *mongo.Collection
}

// NewEventRepo creates a new event repository
func NewEventRepo(db *mongo.Database) EventRepo {
	return &eventRepo{
		collection: db.Collection("screening_events"),
	}
}

func (r *eventRepo) Record(ctx context.Context, event *model.ScreeningEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
