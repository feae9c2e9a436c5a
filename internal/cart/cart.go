package cart

import (
	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
)

// Line позиция корзины: снимок имени и цены на момент добавления
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"qty"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Cart корзина одной открытой сессии кассы. Не потокобезопасна.
type Cart struct {
	lines map[int64]*Line
	order []int64
	total decimal.Decimal
}

func New() *Cart {
	return &Cart{lines: make(map[int64]*Line), total: decimal.Zero}
}

// Add увеличивает количество на 1 или добавляет позицию с количеством 1
func (c *Cart) Add(productID int64, name string, price decimal.Decimal) {
	if c.lines == nil {
		c.lines = make(map[int64]*Line)
	}
	if l, ok := c.lines[productID]; ok {
		l.Quantity++
	} else {
		c.lines[productID] = &Line{ProductID: productID, Name: name, Price: price, Quantity: 1}
		c.order = append(c.order, productID)
	}
	c.recompute()
}

// Remove уменьшает количество на 1; позиция с количеством 1 удаляется
func (c *Cart) Remove(productID int64) bool {
	l, ok := c.lines[productID]
	if !ok {
		return false
	}
	if l.Quantity > 1 {
		l.Quantity--
	} else {
		c.drop(productID)
	}
	c.recompute()
	return true
}

// Discard удаляет позицию целиком независимо от количества
func (c *Cart) Discard(productID int64) bool {
	if _, ok := c.lines[productID]; !ok {
		return false
	}
	c.drop(productID)
	c.recompute()
	return true
}

// Clear очищает корзину после оплаты или отмены
func (c *Cart) Clear() {
	c.lines = make(map[int64]*Line)
	c.order = nil
	c.total = decimal.Zero
}

// Lines возвращает копии позиций в порядке первого добавления
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Total() decimal.Decimal { return c.total }

func (c *Cart) Len() int { return len(c.order) }

func (c *Cart) IsEmpty() bool { return c == nil || len(c.order) == 0 }

// Quantity 0 если позиции нет
func (c *Cart) Quantity(productID int64) int64 {
	if l, ok := c.lines[productID]; ok {
		return l.Quantity
	}
	return 0
}

// Items снимок корзины в виде позиций заказа
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.order))
	for _, l := range c.Lines() {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return items
}

func (c *Cart) drop(productID int64) {
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// full recompute on every mutation
func (c *Cart) recompute() {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].Total())
	}
	c.total = total
}
