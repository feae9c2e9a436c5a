package service

import (
	"context"
	"fmt"
	"time"

	"cafepos/internal/cart"
	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// OrderService фиксирует содержимое корзины как заказ
type OrderService struct {
	orders repository.Orders
	users  repository.Users
	tx     repository.TxManager
	now    func() time.Time
}

func NewOrderService(orders repository.Orders, users repository.Users, tx repository.TxManager) *OrderService {
	return &OrderService{orders: orders, users: users, tx: tx, now: time.Now}
}

// SubmitOrder пишет заголовок и все позиции одной транзакцией.
// Корзину не очищает: это делает вызывающий.
func (s *OrderService) SubmitOrder(ctx context.Context, serverID int64, c *cart.Cart) (int64, error) {
	if c.IsEmpty() {
		return 0, fmt.Errorf("%w: empty cart", domain.ErrValidation)
	}
	items := c.Items()
	total := domain.SumItems(items)

	var orderID int64
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetUser(ctx, serverID); err != nil {
			return fmt.Errorf("server %d: %w", serverID, err)
		}
		o := domain.Order{ServerID: serverID, Total: total, CreatedAt: s.now()}
		if err := s.orders.CreateOrder(ctx, &o); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
			if err := s.orders.AddItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// GetOrder заголовок вместе с позициями
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid order id", domain.ErrValidation)
	}
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = withFallbackNames(items)
	return o, nil
}

// withFallbackNames позиции удалённых товаров получают имя "#<product_id>"
func withFallbackNames(items []domain.OrderItem) []domain.OrderItem {
	for i := range items {
		if items[i].Name == "" {
			items[i].Name = fmt.Sprintf("#%d", items[i].ProductID)
		}
	}
	return items
}
