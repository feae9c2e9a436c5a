package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cafepos/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState
}

type memoryState struct {
	nextCategoryID int64
	nextProductID  int64
	nextUserID     int64
	nextOrderID    int64
	nextItemID     int64
	categories     map[int64]domain.Category
	products       map[int64]domain.Product
	users          map[int64]domain.User
	orders         map[int64]domain.Order
	items          map[int64][]domain.OrderItem
	settings       *domain.Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memoryState{
		nextCategoryID: 1,
		nextProductID:  1,
		nextUserID:     1,
		nextOrderID:    1,
		nextItemID:     1,
		categories:     make(map[int64]domain.Category),
		products:       make(map[int64]domain.Product),
		users:          make(map[int64]domain.User),
		orders:         make(map[int64]domain.Order),
		items:          make(map[int64][]domain.OrderItem),
	}}
}

// clone копия состояния для отката транзакции
func (s memoryState) clone() memoryState {
	cp := s
	cp.categories = make(map[int64]domain.Category, len(s.categories))
	for k, v := range s.categories {
		cp.categories[k] = v
	}
	cp.products = make(map[int64]domain.Product, len(s.products))
	for k, v := range s.products {
		cp.products[k] = v
	}
	cp.users = make(map[int64]domain.User, len(s.users))
	for k, v := range s.users {
		cp.users[k] = v
	}
	cp.orders = make(map[int64]domain.Order, len(s.orders))
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	cp.items = make(map[int64][]domain.OrderItem, len(s.items))
	for k, v := range s.items {
		cp.items[k] = append([]domain.OrderItem(nil), v...)
	}
	if s.settings != nil {
		st := *s.settings
		cp.settings = &st
	}
	return cp
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var (
	_ Catalog  = (*MemoryStore)(nil)
	_ Users    = (*MemoryStore)(nil)
	_ Orders   = (*MemoryStore)(nil)
	_ Settings = (*MemoryStore)(nil)
)

// Catalog implementation

func (m *MemoryStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Category, 0, len(m.state.categories))
	for _, c := range m.state.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryStore) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	c, ok := m.state.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	c.ID = m.state.nextCategoryID
	m.state.nextCategoryID++
	m.state.categories[c.ID] = *c
	return nil
}

func (m *MemoryStore) UpdateCategory(ctx context.Context, c *domain.Category) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.categories[c.ID]; !ok {
		return ErrNotFound
	}
	m.state.categories[c.ID] = *c
	return nil
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.categories, id)
	return nil
}

func (m *MemoryStore) CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	var n int64
	for _, p := range m.state.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.state.products {
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.state.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = m.state.nextProductID
	m.state.nextProductID++
	m.state.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.state.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.products, id)
	return nil
}

// Users implementation

func (m *MemoryStore) FindByUsername(ctx context.Context, username string) ([]domain.User, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.User, 0, 1)
	for _, u := range m.state.users {
		if u.Username == username {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) ListUsers(ctx context.Context, includeAdmin bool) ([]domain.User, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.User, 0, len(m.state.users))
	for _, u := range m.state.users {
		if !includeAdmin && u.Role == domain.RoleAdmin {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username == out[j].Username {
			return out[i].ID < out[j].ID
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *domain.User) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	u.ID = m.state.nextUserID
	m.state.nextUserID++
	m.state.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *domain.User) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.state.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.users, id)
	return nil
}

// Orders implementation

func (m *MemoryStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	o.ID = m.state.nextOrderID
	m.state.nextOrderID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	// stored at the same resolution as the SQL text column
	o.CreatedAt = o.CreatedAt.Truncate(time.Second)
	hdr := *o
	hdr.Items = nil
	hdr.ServerName = ""
	m.state.orders[o.ID] = hdr
	return nil
}

func (m *MemoryStore) AddItem(ctx context.Context, it *domain.OrderItem) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.orders[it.OrderID]; !ok {
		return fmt.Errorf("order %d: %w", it.OrderID, ErrNotFound)
	}
	it.ID = m.state.nextItemID
	m.state.nextItemID++
	row := *it
	row.Name = ""
	m.state.items[it.OrderID] = append(m.state.items[it.OrderID], row)
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	o, ok := m.state.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.ServerName = m.serverName(o.ServerID)
	return &o, nil
}

func (m *MemoryStore) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	rows := m.state.items[orderID]
	out := make([]domain.OrderItem, 0, len(rows))
	for _, it := range rows {
		if p, ok := m.state.products[it.ProductID]; ok {
			it.Name = p.Name
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *MemoryStore) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range m.state.orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		o.ServerName = m.serverName(o.ServerID)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// caller holds the lock
func (m *MemoryStore) serverName(id int64) string {
	if u, ok := m.state.users[id]; ok {
		return u.Username
	}
	return ""
}

// Settings implementation

func (m *MemoryStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	if m.state.settings == nil {
		return nil, ErrNotFound
	}
	cp := *m.state.settings
	return &cp, nil
}

func (m *MemoryStore) SaveSettings(ctx context.Context, s *domain.Settings) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if m.state.settings == nil {
		s.ID = 1
	} else {
		s.ID = m.state.settings.ID
	}
	cp := *s
	m.state.settings = &cp
	return nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	saved := tx.store.state.clone()
	ctx = context.WithValue(ctx, txKey{}, true)
	if err := fn(ctx); err != nil {
		// rollback
		tx.store.state = saved
		return err
	}
	return nil
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
