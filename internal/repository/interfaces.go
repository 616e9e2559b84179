package repository

import (
	"context"

	"atelier/internal/domain/models"
)

// ListFilter narrows a catalog page. Zero value = the whole catalog.
type ListFilter struct {
	Category          models.Category
	NewCollectionOnly bool
}

// ProductPage is one slice of the filtered catalog.
type ProductPage struct {
	Items   []models.Product `json:"items"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, page, pageSize int) (*ProductPage, error)
	UpdateSoldOut(ctx context.Context, id int64, soldOut bool) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}
