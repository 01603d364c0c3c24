// Package cars implements the car record lifecycle: create, keyword search,
// fetch, image-merging update and delete, each scoped to the calling owner.
package cars

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ayush/car-catalog/backend/internal/apperror"
	"github.com/ayush/car-catalog/backend/internal/models"
	"github.com/ayush/car-catalog/backend/internal/store"
)

const msgNotFound = "Car not found"

// Repository defines the interface for car persistence. UpdateOwned and
// DeleteOwned only touch a record whose owner matches, and return
// store.ErrNotFound otherwise.
type Repository interface {
	Insert(ctx context.Context, car *models.Car) error
	ListByOwner(ctx context.Context, ownerID, keyword string) ([]models.Car, error)
	GetByID(ctx context.Context, id string) (*models.Car, error)
	UpdateOwned(ctx context.Context, car *models.Car) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// Limits bound the images attached to one car.
type Limits struct {
	MaxImages     int
	MaxImageBytes int64
}

// CreateInput carries the fields of a new car.
type CreateInput struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Tags        models.Tags
	Images      [][]byte
}

// UpdateInput carries a full replacement of a car's mutable fields.
// KeptImages are base64 encodings of images the client retains.
type UpdateInput struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Tags        models.Tags
	KeptImages  []string
	NewImages   [][]byte
}

// Service applies the car business rules on top of a Repository.
type Service struct {
	repo     Repository
	limits   Limits
	validate *validator.Validate
	log      *slog.Logger
}

func NewService(repo Repository, limits Limits, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		limits:   limits,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Limits returns the image limits enforced by the service.
func (s *Service) Limits() Limits {
	return s.limits
}

// Create stores a new car owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Car, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.NewValidation("title and description are required", err)
	}
	if err := s.checkImages(in.Images); err != nil {
		return nil, err
	}

	car := &models.Car{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Images:      in.Images,
	}
	if err := s.repo.Insert(ctx, car); err != nil {
		return nil, apperror.NewInternal("create car", err)
	}
	s.log.InfoContext(ctx, "car created", "car_id", car.ID.Hex(), "owner", ownerID, "images", len(car.Images))
	return car, nil
}

// List returns ownerID's cars whose title, description or tags contain
// keyword, ignoring case.
func (s *Service) List(ctx context.Context, ownerID, keyword string) ([]models.Car, error) {
	cars, err := s.repo.ListByOwner(ctx, ownerID, keyword)
	if err != nil {
		return nil, apperror.NewInternal("list cars", err)
	}
	if cars == nil {
		cars = []models.Car{}
	}
	return cars, nil
}

// Get returns one car. A car owned by someone else is reported exactly like
// a missing one.
func (s *Service) Get(ctx context.Context, ownerID, carID string) (*models.Car, error) {
	car, err := s.repo.GetByID(ctx, carID)
	if err != nil {
		return nil, notFoundOr(err, "get car")
	}
	if car.UserID != ownerID {
		return nil, apperror.NewNotFound(msgNotFound, nil)
	}
	return car, nil
}

// Update replaces title, description, tags and images of an owned car. The
// new image list is the decoded kept images in the order given followed by
// the new images in upload order.
func (s *Service) Update(ctx context.Context, ownerID, carID string, in UpdateInput) (*models.Car, error) {
	car, err := s.Get(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.NewValidation("title and description are required", err)
	}
	images, err := MergeImages(in.KeptImages, in.NewImages)
	if err != nil {
		return nil, err
	}
	if err := s.checkImages(images); err != nil {
		return nil, err
	}

	car.Title = in.Title
	car.Description = in.Description
	car.Tags = in.Tags
	car.Images = images
	if err := s.repo.UpdateOwned(ctx, car); err != nil {
		return nil, notFoundOr(err, "update car")
	}
	s.log.InfoContext(ctx, "car updated", "car_id", carID, "owner", ownerID,
		"kept_images", len(in.KeptImages), "new_images", len(in.NewImages))
	return car, nil
}

// Delete permanently removes an owned car.
func (s *Service) Delete(ctx context.Context, ownerID, carID string) error {
	if err := s.repo.DeleteOwned(ctx, carID, ownerID); err != nil {
		return notFoundOr(err, "delete car")
	}
	s.log.InfoContext(ctx, "car deleted", "car_id", carID, "owner", ownerID)
	return nil
}

// MergeImages decodes kept (standard base64) and appends added. Duplicates
// are kept as is.
func MergeImages(kept []string, added [][]byte) ([][]byte, error) {
	merged := make([][]byte, 0, len(kept)+len(added))
	for i, ref := range kept {
		img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ref))
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("existing image %d is not valid base64", i), err)
		}
		merged = append(merged, img)
	}
	return append(merged, added...), nil
}

func (s *Service) checkImages(images [][]byte) error {
	if s.limits.MaxImages > 0 && len(images) > s.limits.MaxImages {
		return apperror.NewValidation(fmt.Sprintf("at most %d images are allowed", s.limits.MaxImages), nil)
	}
	if s.limits.MaxImageBytes > 0 {
		for i, img := range images {
			if int64(len(img)) > s.limits.MaxImageBytes {
				return apperror.NewValidation(fmt.Sprintf("image %d exceeds %d bytes", i, s.limits.MaxImageBytes), nil)
			}
		}
	}
	return nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NewNotFound(msgNotFound, err)
	}
	return apperror.NewInternal(op, err)
}
