package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchetti/vetrina/pkg/catalog/models"
)

func (s *GORMStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrProductNotFound)
	}
	return &product, nil
}

func (s *GORMStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GORMStore) CreateProduct(ctx context.Context, product *models.Product) (string, error) {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.CreatedAt = time.Now()

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", models.ErrDuplicateProduct
		}
		return "", err
	}
	return product.ID, nil
}

func (s *GORMStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	var existing models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", product.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrProductNotFound)
	}

	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Name", "Description", "PriceCents", "CategoryID", "Thumbnail", "Images").
		Updates(product).Error
}

func (s *GORMStore) DeleteProduct(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// SetProductThumbnail points the product's thumbnail at the given media key.
// Passing nil clears the thumbnail.
func (s *GORMStore) SetProductThumbnail(ctx context.Context, id string, key *string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("thumbnail", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// AppendProductImage appends a media key to the product's gallery.
func (s *GORMStore) AppendProductImage(ctx context.Context, id string, key string) error {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return convertNotFoundError(err, models.ErrProductNotFound)
	}

	product.Images = append(product.Images, key)
	return s.db.WithContext(ctx).
		Model(&product).
		Update("images", product.Images).Error
}
