package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dmarchetti/vetrina/pkg/media"
)

// thumbnailChunkSize bounds IN (...) parameter lists so large cleanups stay
// inside SQLite's bound-parameter limit.
const thumbnailChunkSize = 500

// CollectMediaKeys returns the set of media keys referenced by the catalog:
// product thumbnails, product gallery images, and category thumbnails.
// Only keys under one of the given prefixes are included; external URLs and
// other unmanaged values are skipped.
func (s *GORMStore) CollectMediaKeys(ctx context.Context, prefixes []string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	managed := func(key string) bool {
		for _, prefix := range prefixes {
			if media.PrefixOf(key) == prefix {
				return true
			}
		}
		return false
	}

	var products []struct {
		Thumbnail *string
		Images    []byte
	}
	err := s.db.WithContext(ctx).
		Table("products").
		Select("thumbnail", "images").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan product references: %w", err)
	}

	for _, p := range products {
		if p.Thumbnail != nil && managed(*p.Thumbnail) {
			keys[*p.Thumbnail] = struct{}{}
		}
		for _, img := range decodeImageList(p.Images) {
			if managed(img) {
				keys[img] = struct{}{}
			}
		}
	}

	var categories []struct {
		Thumbnail *string
	}
	err = s.db.WithContext(ctx).
		Table("categories").
		Select("thumbnail").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan category references: %w", err)
	}

	for _, c := range categories {
		if c.Thumbnail != nil && managed(*c.Thumbnail) {
			keys[*c.Thumbnail] = struct{}{}
		}
	}

	return keys, nil
}

// PullGalleryKeys removes every occurrence of the given keys from product
// image galleries. It returns the number of products whose gallery changed.
//
// The rewrite happens inside a single transaction so a concurrent catalog
// write cannot interleave between read and update.
func (s *GORMStore) PullGalleryKeys(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	remove := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		remove[k] = struct{}{}
	}

	updated := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []struct {
			ID     string
			Images []byte
		}
		if err := tx.Table("products").
			Select("id", "images").
			Where("images IS NOT NULL").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to scan product galleries: %w", err)
		}

		for _, row := range rows {
			images := decodeImageList(row.Images)
			kept := images[:0]
			for _, img := range images {
				if _, gone := remove[img]; !gone {
					kept = append(kept, img)
				}
			}
			if len(kept) == len(images) {
				continue
			}

			if err := tx.Table("products").
				Where("id = ?", row.ID).
				Update("images", datatypes.NewJSONSlice(kept)).Error; err != nil {
				return fmt.Errorf("failed to rewrite gallery for product %s: %w", row.ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// ClearProductThumbnails sets the thumbnail to NULL on every product whose
// thumbnail is one of the given keys. It returns the number of rows changed.
func (s *GORMStore) ClearProductThumbnails(ctx context.Context, keys []string) (int, error) {
	return s.clearThumbnails(ctx, "products", keys)
}

// ClearCategoryThumbnails sets the thumbnail to NULL on every category whose
// thumbnail is one of the given keys. It returns the number of rows changed.
func (s *GORMStore) ClearCategoryThumbnails(ctx context.Context, keys []string) (int, error) {
	return s.clearThumbnails(ctx, "categories", keys)
}

func (s *GORMStore) clearThumbnails(ctx context.Context, table string, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	cleared := 0
	for start := 0; start < len(keys); start += thumbnailChunkSize {
		end := start + thumbnailChunkSize
		if end > len(keys) {
			end = len(keys)
		}

		result := s.db.WithContext(ctx).
			Table(table).
			Where("thumbnail IN ?", keys[start:end]).
			Update("thumbnail", nil)
		if result.Error != nil {
			return cleared, fmt.Errorf("failed to clear %s thumbnails: %w", table, result.Error)
		}
		cleared += int(result.RowsAffected)
	}
	return cleared, nil
}

// decodeImageList unmarshals a raw JSON gallery column. Corrupt or empty
// values decode to an empty list rather than failing the whole scan.
func decodeImageList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil
	}
	return images
}
