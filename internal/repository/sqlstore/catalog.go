package sqlstore

import (
	"context"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0)
	if err := s.selectRows(ctx, &out, "SELECT id, name FROM categories ORDER BY name, id"); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := s.get(ctx, &c, "SELECT id, name FROM categories WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	id, err := s.insert(ctx, "INSERT INTO categories (name) VALUES (?)", c.Name)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	if err := s.mustExist(ctx, "categories", c.ID); err != nil {
		return err
	}
	_, err := s.ext(ctx).ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", c.Name, c.ID)
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.execByID(ctx, "DELETE FROM categories WHERE id = ?", id)
}

func (s *Store) CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	if err := s.get(ctx, &n, "SELECT COUNT(*) FROM products WHERE category_id = ?", categoryID); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	query := "SELECT id, name, price, COALESCE(category_id, 0) AS category_id FROM products WHERE 1 = 1"
	args := make([]any, 0, 2)
	if f.CategoryID != 0 {
		query += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.NameSubstring != "" {
		query += " AND LOWER(name) LIKE ?"
		args = append(args, "%"+lowerASCII(f.NameSubstring)+"%")
	}
	query += " ORDER BY name, id"

	out := make([]domain.Product, 0)
	if err := s.selectRows(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.get(ctx, &p, "SELECT id, name, price, COALESCE(category_id, 0) AS category_id FROM products WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	id, err := s.insert(ctx, "INSERT INTO products (name, price, category_id) VALUES (?, ?, ?)",
		p.Name, p.Price, p.CategoryID)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.mustExist(ctx, "products", p.ID); err != nil {
		return err
	}
	_, err := s.ext(ctx).ExecContext(ctx, "UPDATE products SET name = ?, price = ?, category_id = ? WHERE id = ?",
		p.Name, p.Price, p.CategoryID, p.ID)
	return err
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.execByID(ctx, "DELETE FROM products WHERE id = ?", id)
}

// SQLite LOWER only folds ASCII, so the pattern is folded the same way
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
