package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoRepository implements RecordStore, OperationLedger and AuditSink on a
// single database so a batch, its ledger record and (optionally) its audit
// trail commit in one transaction.
type MongoRepository struct {
	Records    *mongo.Collection
	Operations *mongo.Collection
	Audit      *mongo.Collection
	Client     *mongo.Client
}

func NewMongoRepository(db *mongo.Database, recordsCollection, operationsCollection, auditCollection string) *MongoRepository {
	return &MongoRepository{
		Records:    db.Collection(recordsCollection),
		Operations: db.Collection(operationsCollection),
		Audit:      db.Collection(auditCollection),
		Client:     db.Client(),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	// Tenant scoped lookups by id set
	idxTenant := mongo.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "_id", Value: 1},
		},
		Options: options.Index().SetName("idx_tenant_record"),
	}
	_, err := r.Records.Indexes().CreateOne(ctx, idxTenant)
	return err
}

type mongoTx struct {
	ctx mongo.SessionContext
}

func (t mongoTx) Context() context.Context {
	return t.ctx
}

// WithTransaction runs fn inside one multi-document transaction. Unlike
// session.WithTransaction it never retries fn: a transient failure surfaces as
// ErrWriteConflict and the caller decides whether to run the batch again.
func (r *MongoRepository) WithTransaction(ctx context.Context, fn func(tx Tx) error) error {
	session, err := r.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		return err
	}

	sessCtx := mongo.NewSessionContext(ctx, session)
	if err := fn(mongoTx{ctx: sessCtx}); err != nil {
		_ = session.AbortTransaction(context.WithoutCancel(ctx))
		return mapTxnError(err)
	}

	if err := session.CommitTransaction(sessCtx); err != nil {
		_ = session.AbortTransaction(context.WithoutCancel(ctx))
		return mapTxnError(err)
	}
	return nil
}

func mapTxnError(err error) error {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", ErrWriteConflict, err)
	}
	return err
}
