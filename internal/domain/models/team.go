package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team groups ICs under a single manager. The manager must hold the
// "manager" or "admin" role; every member must hold the "ic" role.
// An IC belongs to at most one team.
type Team struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	ManagerID primitive.ObjectID   `bson:"manager_id" json:"manager_id"`
	ICIDs     []primitive.ObjectID `bson:"ic_ids" json:"ic_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
