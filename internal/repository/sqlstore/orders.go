package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
)

// orderRow date хранится текстом в формате domain.TimeLayout
type orderRow struct {
	ID         int64           `db:"id"`
	ServerID   int64           `db:"serveur_id"`
	ServerName string          `db:"serveur"`
	Total      decimal.Decimal `db:"total"`
	Date       string          `db:"date"`
}

func (r orderRow) toDomain() (domain.Order, error) {
	ts, err := time.ParseInLocation(domain.TimeLayout, r.Date, time.Local)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %d: bad date %q: %w", r.ID, r.Date, err)
	}
	return domain.Order{
		ID:         r.ID,
		ServerID:   r.ServerID,
		ServerName: r.ServerName,
		Total:      r.Total,
		CreatedAt:  ts,
	}, nil
}

const orderSelect = `
	SELECT o.id, COALESCE(o.serveur_id, 0) AS serveur_id, COALESCE(u.username, '') AS serveur,
	       COALESCE(o.total, 0) AS total, COALESCE(o.date, '') AS date
	FROM orders o
	LEFT JOIN users u ON o.serveur_id = u.id`

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.CreatedAt = o.CreatedAt.Truncate(time.Second)
	id, err := s.insert(ctx, "INSERT INTO orders (serveur_id, total, date) VALUES (?, ?, ?)",
		o.ServerID, o.Total, o.CreatedAt.Format(domain.TimeLayout))
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (s *Store) AddItem(ctx context.Context, it *domain.OrderItem) error {
	id, err := s.insert(ctx, "INSERT INTO order_items (order_id, product_id, qty, price) VALUES (?, ?, ?, ?)",
		it.OrderID, it.ProductID, it.Quantity, it.Price)
	if err != nil {
		return err
	}
	it.ID = id
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var row orderRow
	if err := s.get(ctx, &row, orderSelect+" WHERE o.id = ?", id); err != nil {
		return nil, err
	}
	o, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListItems LEFT JOIN: позиции удалённых товаров остаются в заказе
func (s *Store) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	out := make([]domain.OrderItem, 0)
	err := s.selectRows(ctx, &out, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, '') AS name, oi.qty, oi.price
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lastStoredDate последняя дата, представимая текстом с четырёхзначным годом
const lastStoredDate = "9999-12-31 23:59:59"

func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	rows := make([]orderRow, 0)
	if from.Year() > 9999 {
		return []domain.Order{}, nil
	}
	// "10000-01-01" sorts before "2024-..." as text, so clamp and close the bound
	upper, op := to.Format(domain.TimeLayout), "<"
	if to.Year() > 9999 {
		upper, op = lastStoredDate, "<="
	}
	err := s.selectRows(ctx, &rows, orderSelect+" WHERE o.date >= ? AND o.date "+op+" ? ORDER BY o.date, o.id",
		from.Format(domain.TimeLayout), upper)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
