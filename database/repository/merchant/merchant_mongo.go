package merchantRepo

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

// MongoMerchantRepo implements MerchantRepository using MongoDB.
type MongoMerchantRepo struct {
	coll *mongo.Collection
}

// NewMongoMerchantRepo creates a new instance of MerchantRepository using MongoDB.
func NewMongoMerchantRepo() MerchantRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("merchants")
	repo := &MongoMerchantRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create merchant indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoMerchantRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByFirebaseUID retrieves a merchant by their Firebase UID.
func (r *MongoMerchantRepo) GetByFirebaseUID(ctx context.Context, uid string) (*models.Merchant, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var m models.Merchant
	if err := r.coll.FindOne(ctx, bson.M{"firebaseUid": uid}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch merchant with uid %s: %w", uid, err)
	}
	return &m, nil
}

// Create inserts a new merchant document.
func (r *MongoMerchantRepo) Create(ctx context.Context, m *models.Merchant) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

// Update modifies an existing merchant document.
func (r *MongoMerchantRepo) Update(ctx context.Context, m *models.Merchant) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	m.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": m.ID}, bson.M{"$set": m})
	if err != nil {
		return fmt.Errorf("failed to update merchant with id %s: %w", m.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("merchant with id %s not found", m.ID)
	}
	return nil
}
