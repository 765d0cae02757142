package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// UniqueEmail returns an email address no other fixture in this run uses.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

// CreateUser inserts an active user with the given role. The password is
// bcrypt-hashed so login flows work against the fixture. teamID may be nil
// for admins and managers.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, password, role string, teamID *primitive.ObjectID) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  string(hash),
		Name:      name,
		NameCI:    text.Fold(name),
		Role:      role,
		TeamID:    teamID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an active admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Admin", UniqueEmail("admin"), "password123", "admin", nil)
}

// CreateManager inserts an active manager user.
func (f *Fixtures) CreateManager(ctx context.Context) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Manager", UniqueEmail("manager"), "password123", "manager", nil)
}

// CreateIC inserts an active IC user, optionally assigned to a team.
func (f *Fixtures) CreateIC(ctx context.Context, teamID *primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test IC", UniqueEmail("ic"), "password123", "ic", teamID)
}

// CreateTeam inserts a team with the given manager and members. Member users'
// team_id fields are NOT updated; use the teams feature or store for that.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, managerID primitive.ObjectID, icIDs ...primitive.ObjectID) models.Team {
	f.t.Helper()

	if icIDs == nil {
		icIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		ManagerID: managerID,
		ICIDs:     icIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateGoal inserts a week-goal document for the given user. weekStart is
// canonicalized to Monday 00:00 UTC so the fixture matches what the store
// would write.
func (f *Fixtures) CreateGoal(ctx context.Context, userID primitive.ObjectID, weekStart time.Time, goalsContent string) models.WeekGoal {
	f.t.Helper()

	start := models.StartOfWeek(weekStart)
	now := time.Now().UTC()
	goal := models.WeekGoal{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		WeekStart:    start,
		WeekEnd:      models.EndOfWeek(start),
		GoalsContent: goalsContent,
		Comments:     []models.Comment{},
		Revision:     1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("goals").InsertOne(ctx, goal); err != nil {
		f.t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateChatMessage inserts one chat turn for the given goal.
func (f *Fixtures) CreateChatMessage(ctx context.Context, goalID, userID primitive.ObjectID, role, content string) models.ChatMessage {
	f.t.Helper()

	msg := models.ChatMessage{
		ID:        primitive.NewObjectID(),
		GoalID:    goalID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("chat_messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test chat message: %v", err)
	}
	return msg
}
