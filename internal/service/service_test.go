package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"cafepos/internal/cart"
	"cafepos/internal/domain"
	"cafepos/internal/receipt"
	"cafepos/internal/receipt/mock"
	"cafepos/internal/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	tx       *repository.MemoryTx
	catalog  *CatalogService
	users    *UserService
	settings *SettingsService
	orders   *OrderService
	receipts *ReceiptService
	reports  *ReportService

	ali      *domain.User
	boissons *domain.Category
	cafe     *domain.Product
	jus      *domain.Product
	gateau   *domain.Product
}

func setup(t *testing.T, sink receipt.Sink) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	tx := repository.NewMemoryTx(store)
	f := &fixture{
		store:    store,
		tx:       tx,
		catalog:  NewCatalogService(store, tx),
		users:    NewUserService(store, tx, false),
		settings: NewSettingsService(store),
		orders:   NewOrderService(store, store, tx),
		reports:  NewReportService(store),
	}
	f.receipts = NewReceiptService(f.orders, f.settings, sink, "", log.New(io.Discard, "", 0))

	var err error
	if f.ali, err = f.users.CreateServer(ctx, "ali", "1234", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if f.boissons, err = f.catalog.CreateCategory(ctx, "Boissons"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	mk := func(name, price string) *domain.Product {
		p, err := f.catalog.CreateProduct(ctx, domain.Product{Name: name, Price: decimal.RequireFromString(price), CategoryID: f.boissons.ID})
		if err != nil {
			t.Fatalf("create product %s: %v", name, err)
		}
		return p
	}
	f.cafe = mk("Café", "10")
	f.jus = mk("Jus d'orange", "12")
	f.gateau = mk("Gâteau au chocolat", "15")
	return f
}

func scenarioCart(f *fixture) *cart.Cart {
	c := cart.New()
	c.Add(f.cafe.ID, f.cafe.Name, f.cafe.Price)
	c.Add(f.cafe.ID, f.cafe.Name, f.cafe.Price)
	c.Add(f.jus.ID, f.jus.Name, f.jus.Price)
	return c
}

func TestSubmitOrder_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	id, err := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	o, err := f.orders.GetOrder(ctx, id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !o.Total.Equal(decimal.NewFromInt(32)) || len(o.Items) != 2 || o.ServerName != "ali" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if !o.Total.Equal(domain.SumItems(o.Items)) {
		t.Fatalf("total %s != items %s", o.Total, domain.SumItems(o.Items))
	}

	// later price edits do not touch the sold lines
	f.cafe.Price = decimal.NewFromInt(99)
	if _, err := f.catalog.UpdateProduct(ctx, *f.cafe); err != nil {
		t.Fatalf("update product: %v", err)
	}
	o2, _ := f.orders.GetOrder(ctx, id)
	if !o2.Total.Equal(decimal.NewFromInt(32)) || !o2.Items[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("historical order changed: %+v", o2)
	}
}

func TestSubmitOrder_EmptyCartWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	for _, c := range []*cart.Cart{nil, cart.New()} {
		if _, err := f.orders.SubmitOrder(ctx, f.ali.ID, c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
	rep, err := f.reports.OrdersInRange(ctx, "2000-01-01", "2100-01-01")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.Orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(rep.Orders))
	}
}

func TestSubmitOrder_UnknownServer(t *testing.T) {
	f := setup(t, nil)
	if _, err := f.orders.SubmitOrder(context.Background(), 999, scenarioCart(f)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// failingItems fails the n-th AddItem call
type failingItems struct {
	*repository.MemoryStore
	n, calls int
}

func (r *failingItems) AddItem(ctx context.Context, it *domain.OrderItem) error {
	r.calls++
	if r.calls == r.n {
		return errors.New("disk full")
	}
	return r.MemoryStore.AddItem(ctx, it)
}

func TestSubmitOrder_RollbackOnItemFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	repo := &failingItems{MemoryStore: f.store, n: 2}
	svc := NewOrderService(repo, f.store, f.tx)
	c := scenarioCart(f)
	if _, err := svc.SubmitOrder(ctx, f.ali.ID, c); err == nil {
		t.Fatalf("expected error")
	}
	if c.IsEmpty() {
		t.Fatalf("cart must be kept on failure")
	}
	if _, err := f.store.GetOrder(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("order header must be rolled back, got %v", err)
	}
}

func TestRenderReceipt_Scenario(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	id, err := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	text, err := f.receipts.RenderReceipt(ctx, id)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"        " + domain.DefaultCafeName,
		"Serveur : ali",
		"Café x2  20.00 DH",
		"Jus d'orange x1  12.00 DH",
		"TOTAL À PAYER : 32.00 DH",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("receipt missing %q:\n%s", want, text)
		}
	}
	again, _ := f.receipts.RenderReceipt(ctx, id)
	if again != text {
		t.Fatalf("receipt not idempotent")
	}
	if _, err := f.receipts.RenderReceipt(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRenderReceipt_UsesSettingsName(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	if _, err := f.settings.UpdateCafeName(ctx, "Café Atlas"); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	id, _ := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	text, _ := f.receipts.RenderReceipt(ctx, id)
	if !strings.Contains(text, "        Café Atlas\n") {
		t.Fatalf("cafe name not used:\n%s", text)
	}
}

func TestEmitReceipt_HandsTextToSink(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sink := mock.NewMockSink(ctrl)
	f := setup(t, sink)
	id, _ := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	want, _ := f.receipts.RenderReceipt(ctx, id)

	sink.EXPECT().Emit(gomock.Any(), id, want).Return(receipt.Result{Path: "/tmp/ticket_1.txt", Printed: true}, nil)
	res, err := f.receipts.EmitReceipt(ctx, id)
	if err != nil || !res.Printed {
		t.Fatalf("emit: %+v %v", res, err)
	}
}

func TestReports_RangeAndItems(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	day := time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)
	f.orders.now = func() time.Time { return day }
	id1, _ := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	f.orders.now = func() time.Time { return day.Add(14 * time.Hour) }
	c := cart.New()
	c.Add(f.gateau.ID, f.gateau.Name, f.gateau.Price)
	id2, _ := f.orders.SubmitOrder(ctx, f.ali.ID, c)
	f.orders.now = func() time.Time { return day.AddDate(0, 0, 1) }
	_, _ = f.orders.SubmitOrder(ctx, f.ali.ID, c)

	rep, err := f.reports.OrdersInRange(ctx, "2024-03-10", "2024-03-10")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.Orders) != 2 || rep.Orders[0].ID != id1 || rep.Orders[1].ID != id2 {
		t.Fatalf("unexpected orders: %+v", rep.Orders)
	}
	if !rep.Total.Equal(decimal.NewFromInt(47)) {
		t.Fatalf("expected 47, got %s", rep.Total)
	}

	all, err := f.reports.OrdersInRange(ctx, "2024-03-10", "9999-12-31")
	if err != nil || len(all.Orders) != 3 {
		t.Fatalf("open-ended report: %+v %v", all, err)
	}

	empty, err := f.reports.OrdersInRange(ctx, "2023-01-01", "2023-01-31")
	if err != nil || len(empty.Orders) != 0 || domain.FormatMoney(empty.Total) != "0.00" {
		t.Fatalf("unexpected empty report: %+v %v", empty, err)
	}

	lines, err := f.reports.OrderItems(ctx, id1)
	if err != nil || len(lines) != 2 {
		t.Fatalf("items: %+v %v", lines, err)
	}
	if lines[0].Name != "Café" || lines[0].Quantity != 2 || !lines[0].LineTotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected line: %+v", lines[0])
	}
	if _, err := f.reports.OrderItems(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReports_InvalidRange(t *testing.T) {
	f := setup(t, nil)
	for _, r := range [][2]string{{"2024-13-01", "2024-12-01"}, {"yesterday", "2024-01-01"}, {"2024-02-01", "2024-01-01"}} {
		if _, err := f.reports.OrdersInRange(context.Background(), r[0], r[1]); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", r, err)
		}
	}
}

func TestCatalog_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	if err := f.catalog.DeleteCategory(ctx, f.boissons.ID); !errors.Is(err, domain.ErrConstraint) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	empty, _ := f.catalog.CreateCategory(ctx, "Vide")
	if err := f.catalog.DeleteCategory(ctx, empty.ID); err != nil {
		t.Fatalf("delete empty category: %v", err)
	}
	if err := f.catalog.DeleteCategory(ctx, empty.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, _ := f.catalog.ListCategories(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 category, got %d", len(list))
	}
}

func TestCatalog_ProductValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	if _, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "  ", CategoryID: f.boissons.ID}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "X", Price: decimal.NewFromInt(-1), CategoryID: f.boissons.ID}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "X", Price: decimal.RequireFromString("1.005"), CategoryID: f.boissons.ID}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for sub-cent price, got %v", err)
	}
	if _, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "X", CategoryID: 77}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := f.catalog.ProductsByCategory(ctx, f.boissons.ID)
	if err != nil || len(got) != 3 || got[0].Name != "Café" {
		t.Fatalf("products by category: %+v %v", got, err)
	}
}

func TestCatalog_DeletedProductKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	id, _ := f.orders.SubmitOrder(ctx, f.ali.ID, scenarioCart(f))
	if err := f.catalog.DeleteProduct(ctx, f.jus.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	o, err := f.orders.GetOrder(ctx, id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Items[1].Name == "" || !o.Total.Equal(decimal.NewFromInt(32)) {
		t.Fatalf("history lost: %+v", o)
	}
}

func TestUsers_AuthenticateAndManage(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	admin, err := f.users.CreateServer(ctx, "admin", "admin", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	u, ok, err := f.users.Authenticate(ctx, "ali", "1234")
	if err != nil || !ok || u.ID != f.ali.ID || u.Password != "" {
		t.Fatalf("authenticate: %+v %v %v", u, ok, err)
	}
	if _, ok, _ := f.users.Authenticate(ctx, "ali", "nope"); ok {
		t.Fatalf("wrong password accepted")
	}
	servers, _ := f.users.ListServers(ctx, false)
	if len(servers) != 1 || servers[0].Username != "ali" {
		t.Fatalf("unexpected servers: %+v", servers)
	}
	if err := f.users.DeleteServer(ctx, admin.ID); !errors.Is(err, domain.ErrConstraint) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if _, err := f.users.UpdateServer(ctx, f.ali.ID, "ali", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.users.UpdateServer(ctx, f.ali.ID, "alia", "4321"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok, _ := f.users.Authenticate(ctx, "alia", "4321"); !ok {
		t.Fatalf("updated credentials rejected")
	}
	if err := f.users.DeleteServer(ctx, f.ali.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.users.DeleteServer(ctx, f.ali.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUsers_HashedPasswords(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewUserService(store, repository.NewMemoryTx(store), true)
	u, err := svc.CreateServer(ctx, "hamid", "5678", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, _ := store.GetUser(ctx, u.ID)
	if stored.Password == "5678" || !isBcrypt(stored.Password) {
		t.Fatalf("password not hashed: %q", stored.Password)
	}
	if _, ok, _ := svc.Authenticate(ctx, "hamid", "5678"); !ok {
		t.Fatalf("hashed password rejected")
	}
	// legacy cleartext rows keep working
	_ = store.CreateUser(ctx, &domain.User{Username: "ali", Password: "1234", Role: domain.RoleServer})
	if _, ok, _ := svc.Authenticate(ctx, "ali", "1234"); !ok {
		t.Fatalf("cleartext password rejected")
	}
}

func TestSettings_DefaultAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	name, err := f.settings.CafeName(ctx)
	if err != nil || name != domain.DefaultCafeName {
		t.Fatalf("default name: %q %v", name, err)
	}
	if _, err := f.settings.UpdateCafeName(ctx, " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.settings.UpdateCafeName(ctx, "Chez Hamid"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if name, _ := f.settings.CafeName(ctx); name != "Chez Hamid" {
		t.Fatalf("name not updated: %q", name)
	}
}
