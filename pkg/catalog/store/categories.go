package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/vetrina/pkg/catalog/models"
)

func (s *GORMStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrCategoryNotFound)
	}
	return &category, nil
}

func (s *GORMStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *GORMStore) CreateCategory(ctx context.Context, category *models.Category) (string, error) {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", models.ErrDuplicateCategory
		}
		return "", err
	}
	return category.ID, nil
}

func (s *GORMStore) DeleteCategory(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCategoryNotFound
	}
	return nil
}

// SetCategoryThumbnail points the category's thumbnail at the given media key.
// Passing nil clears the thumbnail.
func (s *GORMStore) SetCategoryThumbnail(ctx context.Context, id string, key *string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Update("thumbnail", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCategoryNotFound
	}
	return nil
}
