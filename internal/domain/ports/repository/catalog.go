package repository

import (
	"context"

	"course-payment-engine/internal/domain/model"
)

// CatalogRepository is the read-only view of the external product/program
// catalog. FindProduct returns domain.ErrNotFound for an unknown product.
type CatalogRepository interface {
	FindProduct(ctx context.Context, tx Tx, id string) (*model.Product, error)
}

// UserDirectory is the read-only view of the external user store.
type UserDirectory interface {
	Exists(ctx context.Context, tx Tx, userID string) (bool, error)
}
