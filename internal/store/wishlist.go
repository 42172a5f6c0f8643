package store

import (
	"context"
	"fmt"
)

type WishlistItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

type Wishlist struct {
	UserID int            `json:"userId"`
	Items  []WishlistItem `json:"items"`
}

// GetWishlist returns the user's wishlist, empty when they have no items.
func (s *Store) GetWishlist(ctx context.Context, userID int) (*Wishlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wi.product_id, p.name, p.price
		   FROM wishlist_items wi
		   JOIN products p ON p.id = wi.product_id
		  WHERE wi.user_id = $1
		  ORDER BY wi.product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query wishlist for user %d: %w", userID, err)
	}
	defer rows.Close()

	wishlist := &Wishlist{UserID: userID, Items: []WishlistItem{}}
	for rows.Next() {
		var item WishlistItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("store: scan wishlist item: %w", err)
		}
		wishlist.Items = append(wishlist.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate wishlist items: %w", err)
	}
	return wishlist, nil
}
