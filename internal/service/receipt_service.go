package service

import (
	"context"
	"io"
	"log"

	"cafepos/internal/domain"
	"cafepos/internal/receipt"
)

// ReceiptService собирает чек из сохранённых строк и передаёт его Sink
type ReceiptService struct {
	orders   *OrderService
	settings *SettingsService
	sink     receipt.Sink
	currency string
	logger   *log.Logger
}

func NewReceiptService(orders *OrderService, settings *SettingsService, sink receipt.Sink, currency string, logger *log.Logger) *ReceiptService {
	if currency == "" {
		currency = receipt.DefaultCurrency
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ReceiptService{orders: orders, settings: settings, sink: sink, currency: currency, logger: logger}
}

func (s *ReceiptService) Ticket(ctx context.Context, orderID int64) (receipt.Ticket, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return receipt.Ticket{}, err
	}
	name, err := s.settings.CafeName(ctx)
	if err != nil {
		return receipt.Ticket{}, err
	}
	t := receipt.Ticket{
		CafeName:   name,
		ServerName: o.ServerName,
		OrderID:    o.ID,
		Date:       o.CreatedAt,
		Items:      o.Items,
		Currency:   s.currency,
	}
	if derived := t.Total(); !derived.Equal(o.Total.Round(2)) {
		s.logger.Printf("order %d: stored total %s differs from items total %s",
			o.ID, domain.FormatMoney(o.Total), domain.FormatMoney(derived))
	}
	return t, nil
}

// RenderReceipt повторный вызов для того же заказа даёт тот же текст
func (s *ReceiptService) RenderReceipt(ctx context.Context, orderID int64) (string, error) {
	t, err := s.Ticket(ctx, orderID)
	if err != nil {
		return "", err
	}
	return receipt.Render(t), nil
}

func (s *ReceiptService) EmitReceipt(ctx context.Context, orderID int64) (receipt.Result, error) {
	text, err := s.RenderReceipt(ctx, orderID)
	if err != nil {
		return receipt.Result{}, err
	}
	return s.sink.Emit(ctx, orderID, text)
}
