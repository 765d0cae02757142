package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeekGoal is the weekly record pairing an IC's stated goals with their
// later-submitted results, plus the comment threads anchored to the goals
// text. Comments and replies are embedded so a comment append and the parent
// goal's updated_at bump land in one document write.
//
// Revision is an optimistic-concurrency guard: every whole-aggregate write
// filters on the revision it read and bumps it, so a concurrent writer that
// loses the race gets a conflict instead of silently overwriting.
type WeekGoal struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	WeekStart      time.Time          `bson:"week_start" json:"week_start"`
	WeekEnd        time.Time          `bson:"week_end" json:"week_end"`
	GoalsContent   string             `bson:"goals_content" json:"goals_content"`
	ResultsContent string             `bson:"results_content,omitempty" json:"results_content,omitempty"`
	Comments       []Comment          `bson:"comments" json:"comments"`

	GoalsSubmittedAt   *time.Time `bson:"goals_submitted_at,omitempty" json:"goals_submitted_at,omitempty"`
	ResultsSubmittedAt *time.Time `bson:"results_submitted_at,omitempty" json:"results_submitted_at,omitempty"`

	Revision  int64     `bson:"revision" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Comment annotates a highlighted span of the goals content. The author's
// name and role are cached at write time so rendering a thread never needs a
// user lookup. Comments are never deleted, only marked resolved.
type Comment struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserName        string             `bson:"user_name" json:"user_name"`
	UserRole        string             `bson:"user_role" json:"user_role"`
	Text            string             `bson:"text" json:"text"`
	HighlightedText string             `bson:"highlighted_text" json:"highlighted_text"`
	Position        int                `bson:"position" json:"position"`
	Replies         []Reply            `bson:"replies" json:"replies"`
	Resolved        bool               `bson:"resolved" json:"resolved"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// Reply is immutable once created.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserName  string             `bson:"user_name" json:"user_name"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// FindComment returns a pointer into the Comments slice for the given
// comment ID, or nil when absent.
func (g *WeekGoal) FindComment(id primitive.ObjectID) *Comment {
	for i := range g.Comments {
		if g.Comments[i].ID == id {
			return &g.Comments[i]
		}
	}
	return nil
}

// StartOfWeek returns the Monday 00:00 UTC of the week containing t. All
// week_start values are stored in this canonical form, which is what makes
// the (user_id, week_start) uniqueness meaningful.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns the Sunday 23:59:59 UTC closing the week that starts at
// weekStart.
func EndOfWeek(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 7).Add(-time.Second)
}
