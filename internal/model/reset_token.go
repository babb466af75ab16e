package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetToken is a single-use password recovery document. A TTL index on
// `expires` removes stale tokens at the store level, but redemption still
// checks expiry explicitly because TTL sweeps are not instant.
type ResetToken struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email   string             `bson:"email" json:"-"`
	Token   string             `bson:"token" json:"-"`
	Expires time.Time          `bson:"expires" json:"-"`
}
