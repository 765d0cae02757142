package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/normalize"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"manager"|"ic"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByInviteToken looks a pending user up by invite token. Expiry is the
// caller's concern; this only matches token and inactive state.
func (s *Store) GetByInviteToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"invite_token": token, "active": false}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByTeam returns the users currently assigned to a team.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveICs returns every active IC. Used by the weekly reminder worker.
func (s *Store) ListActiveICs(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"role": authz.RoleIC, "active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInvited inserts a not-yet-activated user carrying an invite token.
// The password field holds a bcrypt hash of the token itself, so no guessable
// credential exists until the invite is completed.
func (s *Store) CreateInvited(ctx context.Context, u models.User, token string, expires time.Time, invitedBy primitive.ObjectID) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	if !authz.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return models.User{}, err
	}
	u.Password = string(placeholder)
	u.Active = false
	u.InviteToken = &token
	u.InviteExpires = &expires
	u.InvitedBy = &invitedBy

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// CreateActive inserts an already-active user with a real password. Used for
// the seeded admin account.
func (s *Store) CreateActive(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	if !authz.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, err
	}
	u.Password = string(hash)
	u.Active = true

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// CompleteInvite activates the user behind a token: sets the real password,
// marks them active, and clears the invite fields. Returns the updated user,
// or mongo.ErrNoDocuments if the token matches no pending user.
func (s *Store) CompleteInvite(ctx context.Context, token, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	var u models.User
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"invite_token": token, "active": false},
		bson.M{
			"$set": bson.M{
				"password":   string(hash),
				"active":     true,
				"updated_at": time.Now(),
			},
			"$unset": bson.M{
				"invite_token":   "",
				"invite_expires": "",
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetInvite stamps a fresh token and expiry on a pending user (resend).
func (s *Store) ResetInvite(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "active": false},
		bson.M{"$set": bson.M{
			"invite_token":   token,
			"invite_expires": expires,
			"updated_at":     time.Now(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Update holds the editable profile fields.
type Update struct {
	Name   string
	Email  string
	Role   string
	TeamID *primitive.ObjectID
}

// UpdateUser updates profile fields. Returns ErrDuplicateEmail if the new
// email belongs to another user.
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, upd Update) error {
	role := normalize.Role(upd.Role)
	if !authz.ValidRole(role) {
		return errBadRole
	}

	name := normalize.Name(upd.Name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"email":      normalize.Email(upd.Email),
		"role":       role,
		"updated_at": time.Now(),
	}

	update := bson.M{"$set": set}
	if upd.TeamID != nil {
		set["team_id"] = *upd.TeamID
	} else {
		update["$unset"] = bson.M{"team_id": ""}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetLastLogin stamps a successful sign-in.
func (s *Store) SetLastLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_at": now, "updated_at": now}})
	return err
}

// VerifyPassword compares a candidate password against the stored hash.
func VerifyPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// AssignTeam sets team_id for every listed user.
func (s *Store) AssignTeam(ctx context.Context, userIDs []primitive.ObjectID, teamID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$set": bson.M{"team_id": teamID, "updated_at": time.Now()}})
	return err
}

// UnassignTeam clears team_id for every user of the team except those listed.
// Pass an empty keep list to clear the whole team (delete path).
func (s *Store) UnassignTeam(ctx context.Context, teamID primitive.ObjectID, keep []primitive.ObjectID) error {
	filter := bson.M{"team_id": teamID}
	if len(keep) > 0 {
		filter["_id"] = bson.M{"$nin": keep}
	}
	_, err := s.c.UpdateMany(ctx, filter,
		bson.M{
			"$unset": bson.M{"team_id": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		})
	return err
}
