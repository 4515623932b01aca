package ledgerRepo

import (
	"context"
	"fmt"
	"time"

	"gutschein/database"
	"gutschein/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLedgerRepo implements LedgerRepository using MongoDB. It also holds
// the voucher collection because ApplyRedemption spans both documents.
type MongoLedgerRepo struct {
	coll        *mongo.Collection
	voucherColl *mongo.Collection
}

// NewMongoLedgerRepo creates a new instance of LedgerRepository using MongoDB.
func NewMongoLedgerRepo() LedgerRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoLedgerRepo{
		coll:        db.Collection("payment_records"),
		voucherColl: db.Collection("vouchers"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create ledger indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates the compound unique index the whole dedup design
// hangs on. Application-level check-then-act is not a substitute: two
// concurrent deliveries must be decided here, by the storage engine.
func (r *MongoLedgerRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "externalPaymentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "flag", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// RecordIfNew inserts the record, letting the unique index arbitrate races.
func (r *MongoLedgerRepo) RecordIfNew(ctx context.Context, rec *models.PaymentRecord) (bool, *models.PaymentRecord, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	rec.ID = uuid.New().String()
	rec.Status = models.LedgerSeen
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, rec)
	if err == nil {
		return true, rec, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, nil, fmt.Errorf("failed to insert payment record %s/%s: %w", rec.Provider, rec.ExternalPaymentID, err)
	}

	existing, err := r.Get(ctx, rec.Provider, rec.ExternalPaymentID)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// Lost the insert race yet cannot read the winner; surface as
		// transient so the provider redelivers.
		return false, nil, fmt.Errorf("payment record %s/%s vanished after duplicate key", rec.Provider, rec.ExternalPaymentID)
	}
	return false, existing, nil
}

// SetStatus moves a record to a terminal status.
func (r *MongoLedgerRepo) SetStatus(ctx context.Context, provider models.PaymentProvider, externalID string, status models.LedgerStatus, flag string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{"status": status, "updatedAt": now, "processedAt": now}
	if flag != "" {
		set["flag"] = flag
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"provider": provider, "externalPaymentId": externalID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment record %s/%s: %w", provider, externalID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("payment record %s/%s not found", provider, externalID)
	}
	return nil
}

// ApplyRedemption runs the voucher CAS and the ledger write in one mongo
// session transaction, so a crash between the two writes cannot leave a
// redeemed voucher with a forever-"seen" ledger record or vice versa.
func (r *MongoLedgerRepo) ApplyRedemption(ctx context.Context, provider models.PaymentProvider, externalID, code string) (bool, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return false, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	redeemed := false

	txnFn := func(sc mongo.SessionContext) error {
		now := time.Now()

		res, err := r.voucherColl.UpdateOne(sc,
			bson.M{"code": code, "status": models.VoucherIssued},
			bson.M{"$set": bson.M{"status": models.VoucherRedeemed, "redeemedAt": now}},
		)
		if err != nil {
			return fmt.Errorf("voucher transition failed: %w", err)
		}
		redeemed = res.MatchedCount > 0

		flag := ""
		if !redeemed {
			// The CAS matched nothing: either the voucher is gone, which is
			// a hard error, or it was already redeemed by a different
			// payment and this one needs audit review.
			count, err := r.voucherColl.CountDocuments(sc, bson.M{"code": code, "status": models.VoucherRedeemed})
			if err != nil {
				return fmt.Errorf("voucher re-read failed: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("voucher %s not found during redemption", code)
			}
			flag = models.FlagDuplicatePayment
		}

		set := bson.M{"status": models.LedgerApplied, "updatedAt": now, "processedAt": now}
		if flag != "" {
			set["flag"] = flag
		}
		lres, err := r.coll.UpdateOne(sc,
			bson.M{"provider": provider, "externalPaymentId": externalID},
			bson.M{"$set": set},
		)
		if err != nil {
			return fmt.Errorf("ledger update failed: %w", err)
		}
		if lres.MatchedCount == 0 {
			return fmt.Errorf("payment record %s/%s not found", provider, externalID)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return false, fmt.Errorf("redemption transaction failed: %w", err)
	}

	return redeemed, nil
}

// Get fetches one record by its natural key.
func (r *MongoLedgerRepo) Get(ctx context.Context, provider models.PaymentProvider, externalID string) (*models.PaymentRecord, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var rec models.PaymentRecord
	err := r.coll.FindOne(ctx, bson.M{"provider": provider, "externalPaymentId": externalID}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment record %s/%s: %w", provider, externalID, err)
	}
	return &rec, nil
}

// FindFlagged returns records needing operator review, newest first.
func (r *MongoLedgerRepo) FindFlagged(ctx context.Context, limit int64) ([]models.PaymentRecord, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"flag": bson.M{"$exists": true, "$ne": ""}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve flagged records: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

// FindStuckSeen returns "seen" records whose transition never completed.
func (r *MongoLedgerRepo) FindStuckSeen(ctx context.Context, olderThan time.Duration, limit int64) ([]models.PaymentRecord, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.LedgerSeen,
		"createdAt": bson.M{"$lt": time.Now().Add(-olderThan)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stuck records: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

func decodeRecords(ctx context.Context, cursor *mongo.Cursor) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	for cursor.Next(ctx) {
		var rec models.PaymentRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode payment record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
