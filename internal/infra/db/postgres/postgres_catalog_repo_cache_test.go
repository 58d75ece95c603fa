//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
)

func TestCatalogRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	product := &model.Product{ID: "bundle-backend", Type: model.ProductTypeBundle, ProgramIDs: []string{"prog-go", "prog-sql"}}
	productJSON, _ := json.Marshal(product)

	t.Run("FindProduct should return from cache on hit", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(productJSON), nil
			},
		}
		innerRepoCalled := false
		mockInnerRepo := &mockInnerCatalogRepo{
			FindProductFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
				innerRepoCalled = true
				return nil, nil
			},
		}

		decorator := NewCatalogRepoCacheDecorator(mockInnerRepo, mockRedis, time.Minute)

		result, err := decorator.FindProduct(ctx, nil, "bundle-backend")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerRepoCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if result == nil || result.ID != "bundle-backend" || len(result.ProgramIDs) != 2 {
			t.Errorf("did not return the correct product from cache: %+v", result)
		}
	})

	t.Run("FindProduct should fall through and populate the cache on miss", func(t *testing.T) {
		var setKey string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", errors.New("redis: nil")
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setKey = key
				return nil
			},
		}
		mockInnerRepo := &mockInnerCatalogRepo{
			FindProductFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
				return product, nil
			},
		}

		decorator := NewCatalogRepoCacheDecorator(mockInnerRepo, mockRedis, time.Minute)

		result, err := decorator.FindProduct(ctx, nil, "bundle-backend")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result == nil || result.ID != "bundle-backend" {
			t.Errorf("did not return the product from the inner repo: %+v", result)
		}
		if setKey != "product:bundle-backend" {
			t.Errorf("cache not populated under the expected key, got %q", setKey)
		}
	})

	t.Run("inner repository errors pass through", func(t *testing.T) {
		wantErr := errors.New("db down")
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", errors.New("redis: nil")
			},
		}
		mockInnerRepo := &mockInnerCatalogRepo{
			FindProductFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
				return nil, wantErr
			},
		}

		decorator := NewCatalogRepoCacheDecorator(mockInnerRepo, mockRedis, time.Minute)

		if _, err := decorator.FindProduct(ctx, nil, "bundle-backend"); !errors.Is(err, wantErr) {
			t.Errorf("expected the inner error, got %v", err)
		}
	})
}
