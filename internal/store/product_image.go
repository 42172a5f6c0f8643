package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type ProductImage struct {
	Filename string
	MimeType string
	Data     []byte
}

// GetProductImage returns the stored image content for a product, or nil
// when the product has none.
func (s *Store) GetProductImage(ctx context.Context, productID int) (*ProductImage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filename, mime_type, data FROM product_images WHERE product_id = $1`, productID)

	var image ProductImage
	if err := row.Scan(&image.Filename, &image.MimeType, &image.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan product image %d: %w", productID, err)
	}
	return &image, nil
}
