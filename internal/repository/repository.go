package repository

import (
	"context"
	"time"

	"cafepos/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = domain.ErrNotFound

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	// CategoryID 0 означает все категории
	CategoryID int64
}

// Catalog репозиторий категорий и товаров
type Catalog interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error)

	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// Users репозиторий учётных записей
type Users interface {
	// FindByUsername имя не уникально, поэтому возвращается список
	FindByUsername(ctx context.Context, username string) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, includeAdmin bool) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// Orders репозиторий заказов. Заказы только создаются и читаются.
type Orders interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	AddItem(ctx context.Context, it *domain.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	// ListBetween полуинтервал [from, to)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

// Settings репозиторий настроек
type Settings interface {
	// GetSettings возвращает ErrNotFound, если строки ещё нет
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, s *domain.Settings) error
}

// TxManager абстракция транзакции. Для in-memory используется глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
