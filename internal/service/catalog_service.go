package service

import (
	"context"
	"fmt"
	"strings"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// CatalogService категории и товары кассы
type CatalogService struct {
	repo repository.Catalog
	tx   repository.TxManager
}

func NewCatalogService(repo repository.Catalog, tx repository.TxManager) *CatalogService {
	return &CatalogService{repo: repo, tx: tx}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}
	c := domain.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if id <= 0 || name == "" {
		return nil, fmt.Errorf("%w: category id and name are required", domain.ErrValidation)
	}
	c := domain.Category{ID: id, Name: name}
	if err := s.repo.UpdateCategory(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory запрещено, пока на категорию ссылается хотя бы один товар
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", domain.ErrValidation)
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetCategory(ctx, id); err != nil {
			return err
		}
		n, err := s.repo.CountProductsInCategory(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: category %d still has %d product(s)", domain.ErrConstraint, id, n)
		}
		return s.repo.DeleteCategory(ctx, id)
	})
}

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, f)
}

// ProductsByCategory список товаров категории, как на экране кассы
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, repository.ProductFilter{CategoryID: categoryID})
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrValidation)
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := s.validateProduct(ctx, &p); err != nil {
		return nil, err
	}
	cp := p
	if err := s.repo.CreateProduct(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// UpdateProduct не меняет уже проданные позиции: цена в заказе хранится снимком
func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrValidation)
	}
	if err := s.validateProduct(ctx, &p); err != nil {
		return nil, err
	}
	cp := p
	if err := s.repo.UpdateProduct(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", domain.ErrValidation)
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *CatalogService) validateProduct(ctx context.Context, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if err := domain.CheckPrice(p.Price); err != nil {
		return err
	}
	if _, err := s.repo.GetCategory(ctx, p.CategoryID); err != nil {
		return fmt.Errorf("category %d: %w", p.CategoryID, err)
	}
	return nil
}
