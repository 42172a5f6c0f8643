package store

import (
	"context"
	"fmt"
)

type Address struct {
	ID         int    `json:"id"`
	UserID     int    `json:"userId"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// ListAddresses returns the user's saved addresses.
func (s *Store) ListAddresses(ctx context.Context, userID int) ([]Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, street, city, postal_code, country
		   FROM addresses
		  WHERE user_id = $1
		  ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query addresses for user %d: %w", userID, err)
	}
	defer rows.Close()

	addresses := []Address{}
	for rows.Next() {
		var address Address
		if err := rows.Scan(&address.ID, &address.UserID, &address.Street,
			&address.City, &address.PostalCode, &address.Country); err != nil {
			return nil, fmt.Errorf("store: scan address: %w", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate addresses: %w", err)
	}
	return addresses, nil
}
