package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
	"cafepos/internal/receipt"
	"cafepos/internal/repository"
	"cafepos/internal/service"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := repository.NewMemoryStore()
	tx := repository.NewMemoryTx(store)
	users := service.NewUserService(store, tx, false)
	catalog := service.NewCatalogService(store, tx)
	settings := service.NewSettingsService(store)
	orders := service.NewOrderService(store, store, tx)
	receipts := service.NewReceiptService(orders, settings, receipt.NewFileSink(t.TempDir(), nil, nil), "", nil)

	for _, u := range []struct {
		name, pass string
		role       domain.Role
	}{{"ali", "1234", domain.RoleServer}, {"hamid", "5678", domain.RoleServer}, {"admin", "admin", domain.RoleAdmin}} {
		if _, err := users.CreateServer(ctx, u.name, u.pass, u.role); err != nil {
			t.Fatal(err)
		}
	}
	cat, _ := catalog.CreateCategory(ctx, "Café")
	_, _ = catalog.CreateProduct(ctx, domain.Product{Name: "Café", Price: decimal.NewFromInt(10), CategoryID: cat.ID})
	_, _ = catalog.CreateProduct(ctx, domain.Product{Name: "Jus d'orange", Price: decimal.NewFromInt(12), CategoryID: cat.ID})

	return NewServer(Services{
		Catalog:  catalog,
		Users:    users,
		Settings: settings,
		Receipts: receipts,
		Reports:  service.NewReportService(store),
		Register: service.NewRegister(store, orders, receipts),
	}, []byte("test-secret"), time.Hour)
}

func doJSON(t *testing.T, s *Server, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, user, pass string) string {
	t.Helper()
	w := doJSON(t, s, "", http.MethodPost, "/api/v1/login", map[string]string{"username": user, "password": pass})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: code %v", user, w.Code)
	}
	var resp loginResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestLogin(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, "", http.MethodPost, "/api/v1/login", map[string]string{"username": "ali", "password": "bad"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", w.Code)
	}
	tok := login(t, s, "ali", "1234")
	if tok == "" {
		t.Fatalf("empty token")
	}
	if w := doJSON(t, s, "", http.MethodGet, "/api/v1/categories", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", w.Code)
	}
}

func TestSaleFlow(t *testing.T) {
	s := setupServer(t)
	tok := login(t, s, "ali", "1234")

	w := doJSON(t, s, tok, http.MethodPost, "/api/v1/carts", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("open cart code %v", w.Code)
	}
	var cv service.CartView
	_ = json.Unmarshal(w.Body.Bytes(), &cv)

	for _, pid := range []int64{1, 1, 2} {
		w = doJSON(t, s, tok, http.MethodPost, "/api/v1/carts/"+cv.ID+"/items", map[string]int64{"product_id": pid})
		if w.Code != http.StatusOK {
			t.Fatalf("add item code %v: %s", w.Code, w.Body.String())
		}
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cv)
	if !cv.Total.Equal(decimal.NewFromInt(32)) {
		t.Fatalf("expected 32, got %s", cv.Total)
	}

	// another server cannot see the cart
	other := login(t, s, "hamid", "5678")
	if w := doJSON(t, s, other, http.MethodGet, "/api/v1/carts/"+cv.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign cart, got %v", w.Code)
	}

	w = doJSON(t, s, tok, http.MethodPost, "/api/v1/carts/"+cv.ID+"/pay", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("pay code %v: %s", w.Code, w.Body.String())
	}
	var pay service.Payment
	_ = json.Unmarshal(w.Body.Bytes(), &pay)
	if pay.OrderID != 1 || pay.Receipt.Path == "" {
		t.Fatalf("unexpected payment: %+v", pay)
	}
	saved, err := os.ReadFile(pay.Receipt.Path)
	if err != nil {
		t.Fatalf("ticket file: %v", err)
	}

	w = doJSON(t, s, tok, http.MethodGet, "/api/v1/orders/1/receipt", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("receipt code %v type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w.Body.String() != string(saved) {
		t.Fatalf("receipt differs from saved ticket")
	}
	if !strings.Contains(w.Body.String(), "TOTAL À PAYER : 32.00 DH") {
		t.Fatalf("unexpected receipt:\n%s", w.Body.String())
	}

	if w := doJSON(t, s, tok, http.MethodGet, "/api/v1/carts/"+cv.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("paid cart must be closed, got %v", w.Code)
	}
}

func TestCartEdits(t *testing.T) {
	s := setupServer(t)
	tok := login(t, s, "ali", "1234")
	w := doJSON(t, s, tok, http.MethodPost, "/api/v1/carts", nil)
	var cv service.CartView
	_ = json.Unmarshal(w.Body.Bytes(), &cv)
	base := "/api/v1/carts/" + cv.ID

	if w := doJSON(t, s, tok, http.MethodPost, base+"/pay", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart pay: expected 400, got %v", w.Code)
	}
	doJSON(t, s, tok, http.MethodPost, base+"/items", map[string]int64{"product_id": 1})
	doJSON(t, s, tok, http.MethodPost, base+"/items", map[string]int64{"product_id": 1})
	w = doJSON(t, s, tok, http.MethodDelete, base+"/items/1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &cv)
	if w.Code != http.StatusOK || cv.Lines[0].Quantity != 1 {
		t.Fatalf("decrement failed: %v %+v", w.Code, cv)
	}
	doJSON(t, s, tok, http.MethodPost, base+"/items", map[string]int64{"product_id": 1})
	w = doJSON(t, s, tok, http.MethodDelete, base+"/lines/1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &cv)
	if w.Code != http.StatusOK || len(cv.Lines) != 0 {
		t.Fatalf("discard failed: %v %+v", w.Code, cv)
	}
	if w := doJSON(t, s, tok, http.MethodPost, base+"/items", map[string]int64{"product_id": 99}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %v", w.Code)
	}
	if w := doJSON(t, s, tok, http.MethodDelete, base, nil); w.Code != http.StatusNoContent {
		t.Fatalf("cancel code %v", w.Code)
	}
}

func TestAdminCatalog(t *testing.T) {
	s := setupServer(t)
	server := login(t, s, "ali", "1234")
	admin := login(t, s, "admin", "admin")

	if w := doJSON(t, s, server, http.MethodPost, "/api/v1/categories", map[string]string{"name": "Jus"}); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for server, got %v", w.Code)
	}
	w := doJSON(t, s, admin, http.MethodPost, "/api/v1/categories", map[string]string{"name": "Jus"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category code %v", w.Code)
	}
	var cat domain.Category
	_ = json.Unmarshal(w.Body.Bytes(), &cat)

	w = doJSON(t, s, admin, http.MethodPost, "/api/v1/products", map[string]any{"name": "Jus de citron", "price": "11,50", "category_id": cat.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product code %v: %s", w.Code, w.Body.String())
	}
	var p domain.Product
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if !p.Price.Equal(decimal.RequireFromString("11.5")) {
		t.Fatalf("price not parsed: %s", p.Price)
	}
	if w := doJSON(t, s, admin, http.MethodPost, "/api/v1/products", map[string]any{"name": "X", "price": "1,2,3", "category_id": cat.ID}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed price: expected 400, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodPost, "/api/v1/products", map[string]any{"name": "Sans prix", "category_id": cat.ID}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing price: expected 400, got %v: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, s, admin, http.MethodPut, "/api/v1/products/1", map[string]any{"name": "Café", "category_id": 1}); w.Code != http.StatusBadRequest {
		t.Fatalf("update without price: expected 400, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodPost, "/api/v1/products", map[string]any{"name": "X", "price": "1.005", "category_id": cat.ID}); w.Code != http.StatusBadRequest {
		t.Fatalf("sub-cent price: expected 400, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodPut, "/api/v1/products/1", map[string]any{"name": "Café", "price": 11, "category_id": 1}); w.Code != http.StatusOK {
		t.Fatalf("update product code %v", w.Code)
	}

	if w := doJSON(t, s, admin, http.MethodDelete, "/api/v1/categories/"+strconv.FormatInt(cat.ID, 10), nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodDelete, "/api/v1/products/"+strconv.FormatInt(p.ID, 10), nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete product code %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodDelete, "/api/v1/categories/"+strconv.FormatInt(cat.ID, 10), nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete category code %v", w.Code)
	}

	w = doJSON(t, s, server, http.MethodGet, "/api/v1/categories/1/products", nil)
	var list []domain.Product
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list) != 2 {
		t.Fatalf("category products: %v %+v", w.Code, list)
	}
	w = doJSON(t, s, server, http.MethodGet, "/api/v1/products?q=JUS", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0].Name != "Jus d'orange" {
		t.Fatalf("search failed: %+v", list)
	}
	if w := doJSON(t, s, server, http.MethodGet, "/api/v1/products?category_id=abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed category_id: expected 400, got %v", w.Code)
	}
	w = doJSON(t, s, server, http.MethodGet, "/api/v1/products?category_id=1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list) != 2 {
		t.Fatalf("category filter: %v %+v", w.Code, list)
	}
}

func TestAdminUsersSettingsReports(t *testing.T) {
	s := setupServer(t)
	admin := login(t, s, "admin", "admin")

	w := doJSON(t, s, admin, http.MethodGet, "/api/v1/users", nil)
	var users []domain.User
	_ = json.Unmarshal(w.Body.Bytes(), &users)
	if w.Code != http.StatusOK || len(users) != 2 {
		t.Fatalf("list users: %v %+v", w.Code, users)
	}
	if w := doJSON(t, s, admin, http.MethodDelete, "/api/v1/users/3", nil); w.Code != http.StatusConflict {
		t.Fatalf("deleting admin: expected 409, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodPost, "/api/v1/users", map[string]string{"username": "sara", "password": ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank password: expected 400, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodPost, "/api/v1/users", map[string]string{"username": "sara", "password": "0000"}); w.Code != http.StatusCreated {
		t.Fatalf("create user code %v", w.Code)
	}

	if w := doJSON(t, s, admin, http.MethodPut, "/api/v1/settings", map[string]string{"cafe_name": "Café Atlas"}); w.Code != http.StatusOK {
		t.Fatalf("update settings code %v", w.Code)
	}
	w = doJSON(t, s, admin, http.MethodGet, "/api/v1/settings", nil)
	if !strings.Contains(w.Body.String(), "Café Atlas") {
		t.Fatalf("settings not updated: %s", w.Body.String())
	}

	w = doJSON(t, s, admin, http.MethodGet, "/api/v1/reports/orders?from=2001-01-01&to=2001-01-31", nil)
	var rep struct {
		Orders []domain.Order `json:"orders"`
		Total  string         `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if w.Code != http.StatusOK || len(rep.Orders) != 0 || rep.Total != "0" {
		t.Fatalf("empty report: %v %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, s, admin, http.MethodGet, "/api/v1/reports/orders?from=2001-02-01&to=2001-01-01", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: expected 400, got %v", w.Code)
	}
	if w := doJSON(t, s, admin, http.MethodGet, "/api/v1/reports/orders/9/items", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: expected 404, got %v", w.Code)
	}
}
