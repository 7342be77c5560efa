package repository

import (
	"context"
	"time"

	"bulkops/internal/bulkops/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAuditIndexes creates indexes for efficient audit querying
func (r *MongoRepository) EnsureAuditIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Per operation trail in write order
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "operation_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "action", Value: 1},
				{Key: "sequence", Value: 1},
			},
			Options: options.Index().SetName("idx_operation_trail"),
		},
		// Per target history
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "target_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_target_history"),
		},
	}

	_, err := r.Audit.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append inserts an audit entry (append-only)
func (r *MongoRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.Audit.InsertOne(ctx, entry)
	return err
}

func (r *MongoRepository) FindByOperation(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error) {
	filter := bson.M{
		"tenant_id":    tenantID,
		"operation_id": operationID,
	}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "action", Value: 1},
		{Key: "sequence", Value: 1},
	})

	cursor, err := r.Audit.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.AuditEntry
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
