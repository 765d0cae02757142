package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents admins, managers, and ICs.
//
// NOTE:
//   - TeamID is only meaningful for the "ic" role; teams own the membership
//     list and keep this field in sync on every membership change.
//   - InviteToken/InviteExpires are present only while the account is pending
//     activation and are cleared when the invite is completed.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Name       string             `bson:"name,omitempty" json:"name,omitempty"`
	NameCI     string             `bson:"name_ci,omitempty" json:"-"` // lowercase, diacritics-stripped
	Role       string             `bson:"role" json:"role"`           // admin | manager | ic
	TeamID     *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	Active     bool               `bson:"active" json:"active"`

	InviteToken   *string             `bson:"invite_token,omitempty" json:"-"`
	InviteExpires *time.Time          `bson:"invite_expires,omitempty" json:"-"`
	InvitedBy     *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the user's name, falling back to the email address
// when no name has been set yet (invited users set their name on activation).
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
