package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tags is the fixed-shape tag record attached to a car.
type Tags struct {
	CarType string `json:"car_type" bson:"car_type"`
	Company string `json:"company"  bson:"company"`
	Dealer  string `json:"dealer"   bson:"dealer"`
}

// Car is a single car record stored in MongoDB. Images are raw bytes.
type Car struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Tags        Tags               `bson:"tags"`
	Images      [][]byte           `bson:"images"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// MatchesKeyword reports whether keyword is a case-insensitive substring of
// the title, description or any tag. An empty keyword matches every car.
func (c *Car) MatchesKeyword(keyword string) bool {
	if keyword == "" {
		return true
	}
	needle := strings.ToLower(keyword)
	for _, field := range []string{c.Title, c.Description, c.Tags.CarType, c.Tags.Company, c.Tags.Dealer} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// ParseTags decodes the JSON tag payload sent by the update form. An empty
// payload yields empty tags.
func ParseTags(raw string) (Tags, error) {
	var tags Tags
	if strings.TrimSpace(raw) == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return Tags{}, fmt.Errorf("parse tags: %w", err)
	}
	return tags, nil
}

// CarResponse is the JSON shape of a car. Images travel as base64 strings.
type CarResponse struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        Tags      `json:"tags"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewCarResponse(c *Car) CarResponse {
	images := make([]string, len(c.Images))
	for i, img := range c.Images {
		images[i] = base64.StdEncoding.EncodeToString(img)
	}
	return CarResponse{
		ID:          c.ID.Hex(),
		UserID:      c.UserID,
		Title:       c.Title,
		Description: c.Description,
		Tags:        c.Tags,
		Images:      images,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
