package repository

import (
	"context"
	"time"

	"bulkops/internal/bulkops/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) FetchByIDs(ctx context.Context, tenantID string, ids []string) ([]*model.TargetRecord, error) {
	filter := bson.M{
		"_id":       bson.M{"$in": ids},
		"tenant_id": tenantID,
	}
	cursor, err := r.Records.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.TargetRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MongoRepository) ResolveTenants(ctx context.Context, ids []string) (map[string]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "tenant_id": 1})
	cursor, err := r.Records.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	owners := make(map[string]string, len(ids))
	for cursor.Next(ctx) {
		var row struct {
			ID       string `bson:"_id"`
			TenantID string `bson:"tenant_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		owners[row.ID] = row.TenantID
	}
	return owners, cursor.Err()
}

func (r *MongoRepository) UpdateInTransaction(tx Tx, tenantID, id string, expectedVersion int64, patch model.FieldPatch, updatedBy string) error {
	ctx := tx.Context()

	filter := bson.M{
		"_id":       id,
		"tenant_id": tenantID,
	}
	if expectedVersion != AnyVersion {
		filter["version"] = expectedVersion
	}

	set := bson.M{
		"updated_at": time.Now(),
		"updated_by": updatedBy,
	}
	for field, value := range patch {
		set[field] = value
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	res, err := r.Records.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Distinguish a vanished record from a lost version race
	count, err := r.Records.CountDocuments(ctx, bson.M{"_id": id, "tenant_id": tenantID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return ErrStaleRecord
}
