package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cleancity/waste-collection/internal/model"
)

// TaskRepo persists waste reports in the `tasks` collection.
type TaskRepo struct{ col *mongo.Collection }

func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{col: db.Collection("tasks")}
}

// collectionStatuses selects tasks that count as completed pickups for the
// dashboard: collected plus verified.
var collectionStatuses = bson.A{model.StatusCollected, model.StatusVerified}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

// Create inserts a task and returns it with its generated id.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

// GetByID fetches a task by its hex object id.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (model.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Task{}, ErrNotFound
	}
	var t model.Task
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

// Save replaces the mutable fields of an existing task.
func (r *TaskRepo) Save(ctx context.Context, t model.Task) (model.Task, error) {
	t.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"status":     t.Status,
		"updated_at": t.UpdatedAt,
	}
	if t.CollectorID != "" {
		set["collector_id"] = t.CollectorID
	}
	if t.ProofImage != "" {
		set["proof_image"] = t.ProofImage
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set})
	if err != nil {
		return model.Task{}, err
	}
	if res.MatchedCount == 0 {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

// Delete removes a task by id.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCitizen returns a citizen's own reports, newest first.
func (r *TaskRepo) ListByCitizen(ctx context.Context, citizenID string) ([]model.Task, error) {
	return r.find(ctx, bson.M{"citizen_id": citizenID})
}

// ListForCollector returns the open queue plus the collector's own work:
// pending tasks unioned with tasks assigned to them, so in-progress and
// rejected pickups stay visible alongside unclaimed reports.
func (r *TaskRepo) ListForCollector(ctx context.Context, collectorID string) ([]model.Task, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"status": model.StatusPending},
		bson.M{"collector_id": collectorID},
	}})
}

// ListAll returns every task, newest first.
func (r *TaskRepo) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *TaskRepo) find(ctx context.Context, filter bson.M) ([]model.Task, error) {
	cur, err := r.col.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	tasks := []model.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountCollections counts collected/verified tasks. A non-empty sinceDate
// (YYYY-MM-DD) restricts the count to reports dated on or after it.
func (r *TaskRepo) CountCollections(ctx context.Context, sinceDate string) (int64, error) {
	filter := bson.M{"status": bson.M{"$in": collectionStatuses}}
	if sinceDate != "" {
		filter["date"] = bson.M{"$gte": sinceDate}
	}
	return r.col.CountDocuments(ctx, filter)
}

// CountByStatus counts tasks currently in the given status.
func (r *TaskRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"status": status})
}

// CollectionCountsByDate groups collected/verified tasks by report date.
func (r *TaskRepo) CollectionCountsByDate(ctx context.Context, sinceDate string) (map[string]int, error) {
	return r.groupCollections(ctx, "$date", sinceDate)
}

// CollectionCountsByType groups collected/verified tasks by waste category.
func (r *TaskRepo) CollectionCountsByType(ctx context.Context, sinceDate string) (map[string]int, error) {
	return r.groupCollections(ctx, "$waste_type", sinceDate)
}

func (r *TaskRepo) groupCollections(ctx context.Context, key, sinceDate string) (map[string]int, error) {
	match := bson.M{"status": bson.M{"$in": collectionStatuses}}
	if sinceDate != "" {
		match["date"] = bson.M{"$gte": sinceDate}
	}
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		ID    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}
