package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProgressionStore persists progression records with optimistic versioning.
type ProgressionStore interface {
	// Load returns the user's record. A user with no record gets the zero
	// state at version 0.
	Load(ctx context.Context, userID string) (models.ProgressionRecord, error)
	// CompareAndSwap writes next only if the stored version still equals
	// expectedVersion. It reports false when another writer got there first.
	CompareAndSwap(ctx context.Context, userID string, expectedVersion int64, next models.ProgressionState) (bool, error)
}

// -------- In-memory store --------

type MemoryProgressionStore struct {
	mu      sync.RWMutex
	records map[string]models.ProgressionRecord
	now     func() time.Time
}

func NewMemoryProgressionStore() *MemoryProgressionStore {
	return &MemoryProgressionStore{
		records: make(map[string]models.ProgressionRecord),
		now:     time.Now,
	}
}

func (s *MemoryProgressionStore) Load(_ context.Context, userID string) (models.ProgressionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[userID]; ok {
		return rec, nil
	}
	return models.ProgressionRecord{UserID: userID}, nil
}

func (s *MemoryProgressionStore) CompareAndSwap(_ context.Context, userID string, expectedVersion int64, next models.ProgressionState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records[userID]
	if current.Version != expectedVersion {
		return false, nil
	}
	s.records[userID] = models.ProgressionRecord{
		UserID:    userID,
		State:     next,
		Version:   expectedVersion + 1,
		UpdatedAt: s.now(),
	}
	return true, nil
}

// -------- Mongo store --------

// MongoProgressionStore keeps one document per user keyed by _id = userID.
type MongoProgressionStore struct {
	coll *mongo.Collection
}

func NewMongoProgressionStore(db *mongo.Database) *MongoProgressionStore {
	return &MongoProgressionStore{coll: db.Collection("progression")}
}

func (s *MongoProgressionStore) Load(ctx context.Context, userID string) (models.ProgressionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var rec models.ProgressionRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProgressionRecord{UserID: userID}, nil
	}
	if err != nil {
		return models.ProgressionRecord{}, fmt.Errorf("load progression: %w", err)
	}
	return rec, nil
}

func (s *MongoProgressionStore) CompareAndSwap(ctx context.Context, userID string, expectedVersion int64, next models.ProgressionState) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": userID, "version": expectedVersion}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: next},
		{Key: "version", Value: expectedVersion + 1},
		{Key: "updated_at", Value: time.Now()},
	}}}

	// Version 0 means no document yet: upsert so the first write creates it.
	// If another writer created it meanwhile, the upsert collides on _id.
	opts := options.Update().SetUpsert(expectedVersion == 0)
	res, err := s.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("swap progression: %w", err)
	}
	return res.MatchedCount == 1 || res.UpsertedCount == 1, nil
}
