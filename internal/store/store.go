// Package store is the postgres access layer for the entities the session
// and user-context cores touch: users, carts, wishlists, addresses, and
// product image content. Rows are scanned by named column so a column-order
// change in the schema cannot silently corrupt a field.
package store

import "database/sql"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
