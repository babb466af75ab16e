package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognized by the platform. Public registration always produces a
// citizen; collectors and admins are created by an admin.
const (
	RoleCitizen   = "citizen"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleCitizen || s == RoleCollector || s == RoleAdmin
}

// User is a document in the `users` collection. Points are only meaningful
// for citizens and never go negative. The bcrypt hash is excluded from JSON
// so it can never leak through a handler response.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Role      string             `bson:"role" json:"role"`
	Points    int                `bson:"points" json:"points"`
	Password  string             `bson:"password,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"-"`
	UpdatedAt time.Time          `bson:"updated_at" json:"-"`
}
