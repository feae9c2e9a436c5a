package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCafeName используется, когда в настройках нет имени кафе
const DefaultCafeName = "Café Caisse Manager"

// TimeLayout формат хранения даты заказа
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout формат границ периода в отчётах
const DateLayout = "2006-01-02"

// Category категория товаров
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Product товар каталога
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Price      decimal.Decimal `json:"price" db:"price"`
	CategoryID int64           `json:"category_id" db:"category_id"`
}

// Role роль пользователя
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleServer Role = "serveur"
)

// ParseRole принимает только известные роли
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleServer:
		return RoleServer, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// User учётная запись сервера или администратора
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Role     Role   `json:"role" db:"role"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Public возвращает запись без пароля
func (u User) Public() User {
	u.Password = ""
	return u
}

// OrderItem позиция в заказе; Name заполняется только при чтении
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Name      string          `json:"name,omitempty" db:"name"`
	Quantity  int64           `json:"qty" db:"qty"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// LineTotal qty × price
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}

// Order сущность заказа, неизменяема после создания
type Order struct {
	ID         int64           `json:"id"`
	ServerID   int64           `json:"serveur_id"`
	ServerName string          `json:"serveur,omitempty"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"date"`
	Items      []OrderItem     `json:"items,omitempty"`
}

// SumItems пересчитывает сумму по позициям
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ReportLine строка детализации заказа в отчёте
type ReportLine struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"qty"`
	UnitPrice decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"total"`
}

// Settings единственная строка настроек
type Settings struct {
	ID       int64  `json:"id" db:"id"`
	CafeName string `json:"cafe_name" db:"cafe_name"`
}
