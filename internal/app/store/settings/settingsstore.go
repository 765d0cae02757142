package settingsstore

import (
	"context"
	"errors"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// settingsKey is the fixed _id of the singleton document. Every reader and
// writer addresses the same document, so "the settings" always means one row.
const settingsKey = "automation"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("settings")}
}

type settingsDoc struct {
	ID string `bson:"_id"`
	models.AutomationSettings `bson:",inline"`
}

// Get returns the automation settings, lazily creating the default document
// (Monday 09:00 UTC) on first read.
func (s *Store) Get(ctx context.Context) (*models.AutomationSettings, error) {
	var doc settingsDoc
	err := s.c.FindOne(ctx, bson.M{"_id": settingsKey}).Decode(&doc)
	if err == nil {
		return &doc.AutomationSettings, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	def := models.DefaultAutomationSettings()
	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now

	// $setOnInsert keeps this race-safe: two first readers both upsert, one
	// inserts, both read back the same document.
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": settingsKey},
		bson.M{"$setOnInsert": bson.M{
			"day_of_week": def.DayOfWeek,
			"hour":        def.Hour,
			"minute":      def.Minute,
			"timezone":    def.Timezone,
			"created_at":  def.CreatedAt,
			"updated_at":  def.UpdatedAt,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc.AutomationSettings, nil
}

// Patch carries the schedule fields to change. Nil fields keep their stored
// value, so a partial update never resets the rest of the schedule.
type Patch struct {
	DayOfWeek *int
	Hour      *int
	Minute    *int
	Timezone  *string
}

// Update merges the patch onto the current settings (creating the default
// document first if none exists), validates the merged schedule, and writes
// it. Validation failures are apperr.ErrValidation; anything else is a
// storage problem.
func (s *Store) Update(ctx context.Context, p Patch) (*models.AutomationSettings, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p.DayOfWeek != nil {
		cur.DayOfWeek = *p.DayOfWeek
	}
	if p.Hour != nil {
		cur.Hour = *p.Hour
	}
	if p.Minute != nil {
		cur.Minute = *p.Minute
	}
	if p.Timezone != nil {
		cur.Timezone = *p.Timezone
	}
	if err := validate(*cur); err != nil {
		return nil, err
	}

	var doc settingsDoc
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": settingsKey},
		bson.M{"$set": bson.M{
			"day_of_week": cur.DayOfWeek,
			"hour":        cur.Hour,
			"minute":      cur.Minute,
			"timezone":    cur.Timezone,
			"updated_at":  time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc.AutomationSettings, nil
}

func validate(s models.AutomationSettings) error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return apperr.Validation("day_of_week must be 0-6, got %d", s.DayOfWeek)
	}
	if s.Hour < 0 || s.Hour > 23 {
		return apperr.Validation("hour must be 0-23, got %d", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return apperr.Validation("minute must be 0-59, got %d", s.Minute)
	}
	if s.Timezone == "" {
		return apperr.Validation("timezone must not be empty")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return apperr.Validation("unknown timezone %q", s.Timezone)
	}
	return nil
}
