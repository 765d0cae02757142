package goalstore

import (
	"context"
	"errors"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("goals")}
}

var (
	// ErrDuplicateWeek is returned when two first saves race for the same
	// (user, week) slot; the loser gets this.
	ErrDuplicateWeek = errors.New("a goal sheet for this week already exists")

	// ErrCommentNotFound is returned when a comment ID does not exist on the
	// goal sheet.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrConcurrentUpdate is returned when the revision-guarded replace keeps
	// losing to concurrent writers.
	ErrConcurrentUpdate = errors.New("goal sheet was modified concurrently")
)

// mutateAttempts bounds the optimistic-concurrency retry loop.
const mutateAttempts = 3

// GetByID loads a goal sheet by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.WeekGoal, error) {
	var g models.WeekGoal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByUser returns a user's goal sheets, most recent week first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WeekGoal, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "week_start", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WeekGoal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByUserWeek loads the sheet for one user and week, if present.
func (s *Store) GetByUserWeek(ctx context.Context, userID primitive.ObjectID, weekStart time.Time) (*models.WeekGoal, error) {
	var g models.WeekGoal
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "week_start": weekStart}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveGoals upserts the goals content for (user, week). The unique index on
// (user_id, week_start) makes the insert side race-safe; a losing racer gets
// ErrDuplicateWeek and can simply retry as an update.
func (s *Store) SaveGoals(ctx context.Context, userID primitive.ObjectID, weekStart, weekEnd time.Time, goalsContent string) (*models.WeekGoal, error) {
	now := time.Now()

	var g models.WeekGoal
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "week_start": weekStart},
		bson.M{
			"$set": bson.M{
				"goals_content": goalsContent,
				"week_end":      weekEnd,
				"updated_at":    now,
			},
			"$inc": bson.M{"revision": 1},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"user_id":    userID,
				"week_start": weekStart,
				"comments":   []models.Comment{},
				"created_at": now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateWeek
		}
		return nil, err
	}
	return &g, nil
}

// SubmitGoals stamps goals_submitted_at. Submitting again refreshes the stamp.
func (s *Store) SubmitGoals(ctx context.Context, goalID primitive.ObjectID) (*models.WeekGoal, error) {
	now := time.Now()
	var g models.WeekGoal
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": goalID},
		bson.M{
			"$set": bson.M{"goals_submitted_at": now, "updated_at": now},
			"$inc": bson.M{"revision": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SubmitResults sets the results content and stamps results_submitted_at in
// the same write, so a fetched sheet never shows a stamp without its content.
func (s *Store) SubmitResults(ctx context.Context, goalID primitive.ObjectID, resultsContent string) (*models.WeekGoal, error) {
	now := time.Now()
	var g models.WeekGoal
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": goalID},
		bson.M{
			"$set": bson.M{
				"results_content":      resultsContent,
				"results_submitted_at": now,
				"updated_at":           now,
			},
			"$inc": bson.M{"revision": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// AddComment appends a comment to the sheet. The store assigns the comment ID
// and timestamps.
func (s *Store) AddComment(ctx context.Context, goalID primitive.ObjectID, c models.Comment) (*models.WeekGoal, *models.Comment, error) {
	c.ID = primitive.NewObjectID()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}

	g, err := s.mutate(ctx, goalID, func(g *models.WeekGoal) error {
		g.Comments = append(g.Comments, c)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return g, g.FindComment(c.ID), nil
}

// AddReply appends a reply to an existing comment. The store assigns the
// reply ID and timestamp.
func (s *Store) AddReply(ctx context.Context, goalID, commentID primitive.ObjectID, r models.Reply) (*models.WeekGoal, *models.Reply, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now()

	g, err := s.mutate(ctx, goalID, func(g *models.WeekGoal) error {
		c := g.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		c.Replies = append(c.Replies, r)
		c.UpdatedAt = r.CreatedAt
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	c := g.FindComment(commentID)
	for i := range c.Replies {
		if c.Replies[i].ID == r.ID {
			return g, &c.Replies[i], nil
		}
	}
	return g, &r, nil
}

// ResolveComment marks a comment resolved. Resolving twice is a no-op, not an
// error.
func (s *Store) ResolveComment(ctx context.Context, goalID, commentID primitive.ObjectID) (*models.WeekGoal, error) {
	return s.mutate(ctx, goalID, func(g *models.WeekGoal) error {
		c := g.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		if !c.Resolved {
			c.Resolved = true
			c.UpdatedAt = time.Now()
		}
		return nil
	})
}

// mutate runs a load-modify-replace cycle guarded by the revision field.
// The replace only matches when the revision is unchanged since the load, so
// concurrent writers never clobber each other's comment edits.
func (s *Store) mutate(ctx context.Context, id primitive.ObjectID, fn func(*models.WeekGoal) error) (*models.WeekGoal, error) {
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		var g models.WeekGoal
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
			return nil, err
		}

		loadedRev := g.Revision
		if err := fn(&g); err != nil {
			return nil, err
		}
		g.Revision = loadedRev + 1
		g.UpdatedAt = time.Now()

		res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id, "revision": loadedRev}, g)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &g, nil
		}
		// Lost the race; reload and try again.
	}
	return nil, ErrConcurrentUpdate
}
