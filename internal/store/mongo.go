package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/car-catalog/backend/internal/models"
)

// keywordFields are the document paths searched by ListByOwner.
var keywordFields = []string{"title", "description", "tags.car_type", "tags.company", "tags.dealer"}

// MongoStore handles car document CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("cars")}
}

// EnsureIndexes creates the owner listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, car *models.Car) error {
	now := time.Now().UTC()
	car.ID = primitive.NewObjectID()
	car.CreatedAt = now
	car.UpdatedAt = now
	if car.Images == nil {
		car.Images = [][]byte{}
	}
	if _, err := s.col.InsertOne(ctx, car); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's cars matching keyword in insertion order.
func (s *MongoStore) ListByOwner(ctx context.Context, ownerID, keyword string) ([]models.Car, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, ownerKeywordFilter(ownerID, keyword), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var cars []models.Car
	if err := cur.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return cars, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Car, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var car models.Car
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&car); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find one: %w", err)
	}
	return &car, nil
}

// UpdateOwned replaces the mutable fields of car. The write only matches a
// document with the same id and owner.
func (s *MongoStore) UpdateOwned(ctx context.Context, car *models.Car) error {
	car.UpdatedAt = time.Now().UTC()
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": car.ID, "user_id": car.UserID},
		bson.M{"$set": bson.M{
			"title":       car.Title,
			"description": car.Description,
			"tags":        car.Tags,
			"images":      car.Images,
			"updated_at":  car.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteOwned(ctx context.Context, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": ownerID})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ownerKeywordFilter scopes a query to ownerID and, when keyword is set, to
// documents where any keyword field contains it case-insensitively. The
// keyword is matched literally.
func ownerKeywordFilter(ownerID, keyword string) bson.M {
	filter := bson.M{"user_id": ownerID}
	if keyword == "" {
		return filter
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	or := make(bson.A, 0, len(keywordFields))
	for _, field := range keywordFields {
		or = append(or, bson.M{field: re})
	}
	filter["$or"] = or
	return filter
}
