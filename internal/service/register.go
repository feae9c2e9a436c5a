package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cafepos/internal/cart"
	"cafepos/internal/domain"
	"cafepos/internal/receipt"
	"cafepos/internal/repository"
)

// CartView снимок открытой корзины для ответа клиенту
type CartView struct {
	ID       string          `json:"id"`
	ServerID int64           `json:"serveur_id"`
	Lines    []cart.Line     `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// Payment итог оплаты: номер заказа и судьба чека
type Payment struct {
	OrderID int64          `json:"order_id"`
	Receipt receipt.Result `json:"receipt"`
	// ReceiptError заполнено, если заказ сохранён, а чек выдать не удалось
	ReceiptError string `json:"receipt_error,omitempty"`
}

type openCart struct {
	serverID int64
	cart     *cart.Cart
}

// Register держит открытые корзины кассы, по одной на окно продажи
type Register struct {
	catalog  repository.Catalog
	orders   *OrderService
	receipts *ReceiptService

	mu    sync.Mutex
	carts map[string]*openCart
}

func NewRegister(catalog repository.Catalog, orders *OrderService, receipts *ReceiptService) *Register {
	return &Register{catalog: catalog, orders: orders, receipts: receipts, carts: make(map[string]*openCart)}
}

func (r *Register) Open(serverID int64) CartView {
	id := uuid.NewString()
	oc := &openCart{serverID: serverID, cart: cart.New()}
	r.mu.Lock()
	r.carts[id] = oc
	r.mu.Unlock()
	return view(id, oc)
}

func (r *Register) Get(id string) (CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, err := r.lookup(id)
	if err != nil {
		return CartView{}, err
	}
	return view(id, oc), nil
}

// Add цена товара фиксируется в момент добавления
func (r *Register) Add(ctx context.Context, id string, productID int64) (CartView, error) {
	p, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, err := r.lookup(id)
	if err != nil {
		return CartView{}, err
	}
	oc.cart.Add(p.ID, p.Name, p.Price)
	return view(id, oc), nil
}

// Remove уменьшает количество на один
func (r *Register) Remove(id string, productID int64) (CartView, error) {
	return r.mutate(id, func(c *cart.Cart) bool { return c.Remove(productID) }, productID)
}

// Discard убирает строку целиком
func (r *Register) Discard(id string, productID int64) (CartView, error) {
	return r.mutate(id, func(c *cart.Cart) bool { return c.Discard(productID) }, productID)
}

func (r *Register) mutate(id string, fn func(*cart.Cart) bool, productID int64) (CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, err := r.lookup(id)
	if err != nil {
		return CartView{}, err
	}
	if !fn(oc.cart) {
		return CartView{}, fmt.Errorf("%w: product %d is not in cart", domain.ErrNotFound, productID)
	}
	return view(id, oc), nil
}

// Cancel очищает и закрывает корзину
func (r *Register) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, err := r.lookup(id)
	if err != nil {
		return err
	}
	oc.cart.Clear()
	delete(r.carts, id)
	return nil
}

// Pay сохраняет заказ, выдаёт чек и закрывает корзину.
// При ошибке сохранения корзина остаётся открытой; ошибка чека заказ не отменяет.
func (r *Register) Pay(ctx context.Context, id string) (*Payment, error) {
	orderID, err := r.checkout(ctx, id)
	if err != nil {
		return nil, err
	}

	// the receipt may wait on the printer; other carts stay usable meanwhile
	pay := &Payment{OrderID: orderID}
	res, err := r.receipts.EmitReceipt(ctx, orderID)
	if err != nil {
		r.receipts.logger.Printf("order %d saved, receipt failed: %v", orderID, err)
		pay.ReceiptError = err.Error()
		return pay, nil
	}
	pay.Receipt = res
	return pay, nil
}

// checkout сохраняет заказ и закрывает корзину под блокировкой
func (r *Register) checkout(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	orderID, err := r.orders.SubmitOrder(ctx, oc.serverID, oc.cart)
	if err != nil {
		return 0, err
	}
	oc.cart.Clear()
	delete(r.carts, id)
	return orderID, nil
}

// Len число открытых корзин
func (r *Register) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

func (r *Register) lookup(id string) (*openCart, error) {
	oc, ok := r.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: cart %s", domain.ErrNotFound, id)
	}
	return oc, nil
}

func view(id string, oc *openCart) CartView {
	return CartView{ID: id, ServerID: oc.serverID, Lines: oc.cart.Lines(), Total: oc.cart.Total()}
}
