package models

import (
	"time"
)

// DefaultPostImageURL is the cover image used when a post has none.
const DefaultPostImageURL = "https://placehold.co/600x400.png"

// Category is the closed set of post categories.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryLifestyle  Category = "Lifestyle"
	CategoryBusiness   Category = "Business"
	CategoryCreative   Category = "Creative"
	CategoryCode       Category = "Code"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryTechnology,
	CategoryLifestyle,
	CategoryBusiness,
	CategoryCreative,
	CategoryCode,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Post represents a published article.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Slug     string   `gorm:"uniqueIndex;not null" json:"slug"`
	Title    string   `gorm:"not null" json:"title"`
	Content  string   `gorm:"type:text;not null" json:"content"`
	AuthorID uint     `gorm:"not null;index" json:"author_id"`
	Author   *User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category Category `gorm:"type:varchar(32);not null;index" json:"category"`
	Tags     []string `gorm:"serializer:json;type:text" json:"tags"`
	ImageURL string   `json:"image_url"`
	Likes    int      `gorm:"not null;default:0" json:"likes"`
	// IsBookmarked is display data carried by seeded posts, not per viewer.
	IsBookmarked bool      `gorm:"not null;default:false" json:"is_bookmarked"`
	CreatedAt    time.Time `json:"created_at"`
}
