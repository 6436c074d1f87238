// Package models defines the catalog database models.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a catalog product document.
//
// Thumbnail holds a single media key (nullable); Images holds the gallery
// as a JSON array of media keys. Both may also contain externally-hosted
// URLs, which the media engine ignores.
type Product struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description,omitempty"`
	PriceCents  int64   `gorm:"not null;default:0" json:"price_cents"`
	CategoryID  *string `gorm:"index" json:"category_id,omitempty"`

	Thumbnail *string                     `gorm:"index" json:"thumbnail,omitempty"`
	Images    datatypes.JSONSlice[string] `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a catalog category document with a single thumbnail reference.
type Category struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Thumbnail *string `gorm:"index" json:"thumbnail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels returns every model for schema migration.
func AllModels() []any {
	return []any{
		&Product{},
		&Category{},
	}
}
