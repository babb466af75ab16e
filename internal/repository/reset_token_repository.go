package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cleancity/waste-collection/internal/model"
)

// ResetTokenRepo persists single-use password recovery tokens.
type ResetTokenRepo struct{ col *mongo.Collection }

func NewResetTokenRepo(db *mongo.Database) *ResetTokenRepo {
	return &ResetTokenRepo{col: db.Collection("reset_tokens")}
}

// Create stores a new token record.
func (r *ResetTokenRepo) Create(ctx context.Context, rt model.ResetToken) error {
	_, err := r.col.InsertOne(ctx, rt)
	return err
}

// GetByToken looks up a live token. An unknown token returns ErrNotFound.
// A known but expired token is deleted on the spot and returns
// ErrTokenExpired; the TTL index lags real time, so expiry is enforced
// here as well.
func (r *ResetTokenRepo) GetByToken(ctx context.Context, token string) (model.ResetToken, error) {
	var rt model.ResetToken
	err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ResetToken{}, ErrNotFound
	}
	if err != nil {
		return model.ResetToken{}, err
	}
	if time.Now().UTC().After(rt.Expires) {
		_, _ = r.col.DeleteOne(ctx, bson.M{"_id": rt.ID})
		return model.ResetToken{}, ErrTokenExpired
	}
	return rt, nil
}

// Delete removes a consumed token so it can never be redeemed twice.
func (r *ResetTokenRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
