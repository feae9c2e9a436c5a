package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// Report заказы периода и их сумма
type Report struct {
	Orders []domain.Order  `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

type ReportService struct {
	orders repository.Orders
}

func NewReportService(orders repository.Orders) *ReportService {
	return &ReportService{orders: orders}
}

// OrdersInRange границы YYYY-MM-DD включительно
func (s *ReportService) OrdersInRange(ctx context.Context, start, end string) (*Report, error) {
	from, err := parseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", domain.ErrValidation, start, end)
	}
	list, err := s.orders.ListBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, o := range list {
		total = total.Add(o.Total)
	}
	if list == nil {
		list = []domain.Order{}
	}
	return &Report{Orders: list, Total: total}, nil
}

// OrderItems строки заказа для окна отчёта
func (s *ReportService) OrderItems(ctx context.Context, orderID int64) ([]domain.ReportLine, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.ReportLine, 0, len(items))
	for _, it := range withFallbackNames(items) {
		lines = append(lines, domain.ReportLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: it.LineTotal(),
		})
	}
	return lines, nil
}

func parseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(domain.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", domain.ErrValidation, s)
	}
	return d, nil
}
