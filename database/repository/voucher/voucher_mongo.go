package voucherRepo

import (
	"context"
	"fmt"
	"time"

	"gutschein/database"
	"gutschein/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVoucherRepo implements VoucherRepository using MongoDB.
type MongoVoucherRepo struct {
	coll *mongo.Collection
}

// NewMongoVoucherRepo creates a new instance of VoucherRepository using MongoDB.
func NewMongoVoucherRepo() VoucherRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("vouchers")
	repo := &MongoVoucherRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create voucher indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates the unique code index. Code uniqueness is enforced
// here at the storage layer, not just in application logic.
func (r *MongoVoucherRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "merchantId", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByCode retrieves a voucher by its code.
func (r *MongoVoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var v models.Voucher
	if err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&v); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch voucher with code %s: %w", code, err)
	}
	return &v, nil
}

// Create inserts a new voucher document.
func (r *MongoVoucherRepo) Create(ctx context.Context, v *models.Voucher) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	v.CreatedAt = time.Now()
	if v.Status == "" {
		v.Status = models.VoucherIssued
	}

	_, err := r.coll.InsertOne(ctx, v)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create voucher: %w", err)
	}
	return nil
}

// Transition performs the compare-and-swap status change. The filter matches
// both code and the expected current status; MatchedCount zero means either
// the voucher is missing or it is no longer in the expected status, which is
// disambiguated with a follow-up read.
func (r *MongoVoucherRepo) Transition(ctx context.Context, code string, from, to models.VoucherStatus) (TransitionResult, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": to}}
	if to == models.VoucherRedeemed {
		now := time.Now()
		update = bson.M{"$set": bson.M{"status": to, "redeemedAt": now}}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"code": code, "status": from}, update)
	if err != nil {
		return TransitionNotFound, fmt.Errorf("failed to transition voucher %s: %w", code, err)
	}
	if res.MatchedCount > 0 {
		return TransitionApplied, nil
	}

	current, err := r.GetByCode(ctx, code)
	if err != nil {
		return TransitionNotFound, err
	}
	if current == nil {
		return TransitionNotFound, nil
	}
	if current.Status == to {
		return TransitionAlreadyDone, nil
	}
	return TransitionNotFound, fmt.Errorf("voucher %s in unexpected status %s", code, current.Status)
}

// GetAll retrieves all vouchers, optionally scoped to one merchant.
func (r *MongoVoucherRepo) GetAll(ctx context.Context, merchantID string) ([]models.Voucher, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if merchantID != "" {
		filter["merchantId"] = merchantID
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve vouchers: %w", err)
	}
	defer cursor.Close(ctx)

	var vouchers []models.Voucher
	for cursor.Next(ctx) {
		var v models.Voucher
		if err := cursor.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, nil
}
