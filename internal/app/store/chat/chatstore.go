package chatstore

import (
	"context"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chat_messages")}
}

// Insert persists one chat message and returns it with ID and timestamp set.
func (s *Store) Insert(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.ChatMessage{}, err
	}
	return m, nil
}

// ListByGoal returns the conversation for a goal sheet, oldest first.
func (s *Store) ListByGoal(ctx context.Context, goalID primitive.ObjectID) ([]models.ChatMessage, error) {
	cur, err := s.c.Find(ctx, bson.M{"goal_id": goalID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ChatMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
