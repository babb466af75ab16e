package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification severities shown to users.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification is a server-owned message addressed to one user. Documents
// are appended by the queue consumer when a task changes status and are
// only ever mutated by marking them read.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string             `bson:"user_id" json:"userId"`
	Message   string             `bson:"message" json:"message"`
	Type      string             `bson:"type" json:"type"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"date"`
}
