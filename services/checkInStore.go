package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CheckInStore persists classified check-ins and journal entries.
type CheckInStore interface {
	// SaveResult stores the day's result for a user, replacing an earlier one for the same date.
	SaveResult(ctx context.Context, userID string, date models.Date, result models.CheckInResult) (*models.StoredCheckInResult, error)
	ResultsByUser(ctx context.Context, userID string, limit int64) ([]models.StoredCheckInResult, error)
	SaveEntry(ctx context.Context, entry *models.CheckInEntry) error
	EntriesSince(ctx context.Context, userID string, since time.Time) ([]models.CheckInEntry, error)
	// HighRiskUsers returns each user's latest result, highest score first.
	HighRiskUsers(ctx context.Context, limit int64) ([]models.StoredCheckInResult, error)
}

// -------- Mongo store --------

type MongoCheckInStore struct {
	results *mongo.Collection
	entries *mongo.Collection
}

func NewMongoCheckInStore(db *mongo.Database) *MongoCheckInStore {
	return &MongoCheckInStore{
		results: db.Collection("check_in_results"),
		entries: db.Collection("journal_entries"),
	}
}

func (s *MongoCheckInStore) SaveResult(ctx context.Context, userID string, date models.Date, result models.CheckInResult) (*models.StoredCheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stored := &models.StoredCheckInResult{
		UserID:        userID,
		CheckInResult: result,
		Date:          date,
		StateLabel:    result.State.Label(),
		CreatedAt:     time.Now(),
	}
	filter := bson.M{"user_id": userID, "date": date}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "score", Value: result.Score},
		{Key: "state", Value: result.State},
		{Key: "state_label", Value: stored.StateLabel},
		{Key: "insight", Value: result.Insight},
		{Key: "timestamp_millis", Value: result.TimestampMillis},
		{Key: "created_at", Value: stored.CreatedAt},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := s.results.FindOneAndUpdate(ctx, filter, update, opts).Decode(stored); err != nil {
		return nil, fmt.Errorf("save check-in result: %w", err)
	}
	return stored, nil
}

func (s *MongoCheckInStore) ResultsByUser(ctx context.Context, userID string, limit int64) ([]models.StoredCheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit)
	cursor, err := s.results.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.StoredCheckInResult{}
	err = cursor.All(ctx, &out)
	return out, err
}

func (s *MongoCheckInStore) SaveEntry(ctx context.Context, entry *models.CheckInEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := s.entries.InsertOne(ctx, entry)
	return err
}

func (s *MongoCheckInStore) EntriesSince(ctx context.Context, userID string, since time.Time) ([]models.CheckInEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID, "timestamp": bson.M{"$gte": since}}
	cursor, err := s.entries.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.CheckInEntry{}
	err = cursor.All(ctx, &out)
	return out, err
}

func (s *MongoCheckInStore) HighRiskUsers(ctx context.Context, limit int64) ([]models.StoredCheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Latest result per user, then by score desc
	pipe := []bson.M{
		{"$sort": bson.M{"date": -1}},
		{"$group": bson.M{
			"_id": "$user_id",
			"doc": bson.M{"$first": "$$ROOT"},
		}},
		{"$replaceRoot": bson.M{"newRoot": "$doc"}},
		{"$sort": bson.M{"score": -1}},
		{"$limit": limit},
	}
	cursor, err := s.results.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.StoredCheckInResult{}
	err = cursor.All(ctx, &out)
	return out, err
}

// -------- In-memory store --------

type MemoryCheckInStore struct {
	mu      sync.RWMutex
	results map[string][]models.StoredCheckInResult // userID -> results
	entries map[string][]models.CheckInEntry        // userID -> entries
}

func NewMemoryCheckInStore() *MemoryCheckInStore {
	return &MemoryCheckInStore{
		results: make(map[string][]models.StoredCheckInResult),
		entries: make(map[string][]models.CheckInEntry),
	}
}

func (s *MemoryCheckInStore) SaveResult(_ context.Context, userID string, date models.Date, result models.CheckInResult) (*models.StoredCheckInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := models.StoredCheckInResult{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		CheckInResult: result,
		Date:          date,
		StateLabel:    result.State.Label(),
		CreatedAt:     time.Now(),
	}
	list := s.results[userID]
	for i := range list {
		if list[i].Date == date {
			stored.ID = list[i].ID
			list[i] = stored
			return &stored, nil
		}
	}
	s.results[userID] = append(list, stored)
	return &stored, nil
}

func (s *MemoryCheckInStore) ResultsByUser(_ context.Context, userID string, limit int64) ([]models.StoredCheckInResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.StoredCheckInResult{}, s.results[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryCheckInStore) SaveEntry(_ context.Context, entry *models.CheckInEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.entries[entry.UserID] = append(s.entries[entry.UserID], *entry)
	return nil
}

func (s *MemoryCheckInStore) EntriesSince(_ context.Context, userID string, since time.Time) ([]models.CheckInEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.CheckInEntry{}
	for _, e := range s.entries[userID] {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryCheckInStore) HighRiskUsers(_ context.Context, limit int64) ([]models.StoredCheckInResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.StoredCheckInResult{}
	for _, list := range s.results {
		if len(list) == 0 {
			continue
		}
		latest := list[0]
		for _, r := range list[1:] {
			if r.Date > latest.Date {
				latest = r
			}
		}
		out = append(out, latest)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
