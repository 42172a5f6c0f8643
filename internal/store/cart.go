package store

import (
	"context"
	"fmt"
)

type CartItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	UserID int        `json:"userId"`
	Items  []CartItem `json:"items"`
}

// GetCart returns the user's cart, empty when they have no items.
func (s *Store) GetCart(ctx context.Context, userID int) (*Cart, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.product_id, p.name, p.price, ci.quantity
		   FROM cart_items ci
		   JOIN products p ON p.id = ci.product_id
		  WHERE ci.user_id = $1
		  ORDER BY ci.product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query cart for user %d: %w", userID, err)
	}
	defer rows.Close()

	cart := &Cart{UserID: userID, Items: []CartItem{}}
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("store: scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate cart items: %w", err)
	}
	return cart, nil
}
