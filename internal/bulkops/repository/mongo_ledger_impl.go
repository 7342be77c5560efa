package repository

import (
	"context"
	"time"

	"bulkops/internal/bulkops/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureLedgerIndexes creates indexes for status queries and conflict lookups
func (r *MongoRepository) EnsureLedgerIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Tenant listing, newest first
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "executed_at", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_executed_at"),
		},
		// Unresolved operations touching a target
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "mutated_target_ids", Value: 1},
				{Key: "status", Value: 1},
				{Key: "undo_deadline", Value: 1},
			},
			Options: options.Index().SetName("idx_unresolved_targets"),
		},
	}

	_, err := r.Operations.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, operationID string) (*model.BatchOperationRecord, error) {
	var record model.BatchOperationRecord
	err := r.Operations.FindOne(ctx, bson.M{"_id": operationID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *MongoRepository) Save(ctx context.Context, record *model.BatchOperationRecord) error {
	_, err := r.Operations.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) MarkReversed(ctx context.Context, operationID string, reversedAt time.Time, reversedBy string) error {
	filter := bson.M{
		"_id":    operationID,
		"status": bson.M{"$ne": model.RecordReversed},
	}
	update := bson.M{
		"$set": bson.M{
			"status":      model.RecordReversed,
			"reversed_at": reversedAt,
			"reversed_by": reversedBy,
		},
	}
	res, err := r.Operations.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.Operations.CountDocuments(ctx, bson.M{"_id": operationID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return ErrAlreadyReversed
}

func (r *MongoRepository) FindUnresolved(ctx context.Context, tenantID string, targetIDs []string, now time.Time) (map[string]string, error) {
	filter := bson.M{
		"tenant_id":          tenantID,
		"mutated_target_ids": bson.M{"$in": targetIDs},
		"status":             bson.M{"$in": []model.RecordStatus{model.RecordSuccess, model.RecordPartial}},
		"undo_deadline":      bson.M{"$gte": now},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "mutated_target_ids": 1}).
		SetSort(bson.D{{Key: "executed_at", Value: -1}})

	cursor, err := r.Operations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	wanted := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}

	inFlight := make(map[string]string)
	for cursor.Next(ctx) {
		var row struct {
			ID      string   `bson:"_id"`
			Targets []string `bson:"mutated_target_ids"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		for _, t := range row.Targets {
			if _, ok := wanted[t]; !ok {
				continue
			}
			if _, seen := inFlight[t]; !seen {
				inFlight[t] = row.ID
			}
		}
	}
	return inFlight, cursor.Err()
}

func (r *MongoRepository) List(ctx context.Context, filter model.OperationFilter) ([]*model.BatchOperationRecord, int64, error) {
	query := bson.M{"tenant_id": filter.TenantID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.OperationType != "" {
		query["operation_type"] = filter.OperationType
	}

	total, err := r.Operations.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((filter.Page - 1) * filter.Size)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "executed_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(filter.Size))

	cursor, err := r.Operations.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []*model.BatchOperationRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
