package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/car-catalog/backend/internal/models"
)

// MemoryStore keeps cars in process memory. It has the same semantics as
// MongoStore and backs CAR_STORE=memory and the service tests.
type MemoryStore struct {
	mu   sync.RWMutex
	cars map[primitive.ObjectID]models.Car
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cars: make(map[primitive.ObjectID]models.Car),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Insert(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	car.ID = primitive.NewObjectID()
	car.CreatedAt = now
	car.UpdatedAt = now
	if car.Images == nil {
		car.Images = [][]byte{}
	}
	s.cars[car.ID] = clone(*car)
	return nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID, keyword string) ([]models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Car
	for _, car := range s.cars {
		if car.UserID == ownerID && car.MatchesKeyword(keyword) {
			out = append(out, clone(car))
		}
	}
	// ObjectIDs carry a creation timestamp and a counter, so hex order is
	// insertion order within a process.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Car, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	car, ok := s.cars[oid]
	if !ok {
		return nil, ErrNotFound
	}
	c := clone(car)
	return &c, nil
}

func (s *MemoryStore) UpdateOwned(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.cars[car.ID]
	if !ok || stored.UserID != car.UserID {
		return ErrNotFound
	}
	stored.Title = car.Title
	stored.Description = car.Description
	stored.Tags = car.Tags
	stored.Images = car.Images
	stored.UpdatedAt = s.now()
	s.cars[car.ID] = clone(stored)

	car.CreatedAt = stored.CreatedAt
	car.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *MemoryStore) DeleteOwned(_ context.Context, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	car, ok := s.cars[oid]
	if !ok || car.UserID != ownerID {
		return ErrNotFound
	}
	delete(s.cars, oid)
	return nil
}

// clone copies the image slices so callers never alias stored bytes.
func clone(c models.Car) models.Car {
	images := make([][]byte, len(c.Images))
	for i, img := range c.Images {
		images[i] = append([]byte(nil), img...)
	}
	c.Images = images
	return c
}
