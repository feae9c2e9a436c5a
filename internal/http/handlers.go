package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"cafepos/internal/auth"
	"cafepos/internal/domain"
	"cafepos/internal/service"
)

// Services всё, что обслуживает HTTP слой
type Services struct {
	Catalog  *service.CatalogService
	Users    *service.UserService
	Settings *service.SettingsService
	Receipts *service.ReceiptService
	Reports  *service.ReportService
	Register *service.Register
}

type Server struct {
	engine   *gin.Engine
	svc      Services
	secret   []byte
	tokenTTL time.Duration
}

func NewServer(svc Services, secret []byte, tokenTTL time.Duration) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{engine: r, svc: svc, secret: secret, tokenTTL: tokenTTL}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	v1.POST("/login", s.login)

	authed := v1.Group("", auth.Middleware(s.secret))
	{
		authed.GET("/categories", s.listCategories)
		authed.GET("/categories/:id/products", s.listCategoryProducts)
		authed.GET("/products", s.listProducts)
		authed.GET("/products/:id", s.getProduct)

		carts := authed.Group("/carts")
		carts.POST("", s.openCart)
		carts.GET(":id", s.getCart)
		carts.DELETE(":id", s.cancelCart)
		carts.POST(":id/items", s.addCartItem)
		carts.DELETE(":id/items/:product_id", s.removeCartItem)
		carts.DELETE(":id/lines/:product_id", s.discardCartLine)
		carts.POST(":id/pay", s.payCart)

		authed.GET("/orders/:id/receipt", s.getReceipt)
		authed.GET("/settings", s.getSettings)
	}

	admin := authed.Group("", auth.RequireRole(domain.RoleAdmin))
	{
		admin.POST("/categories", s.createCategory)
		admin.PUT("/categories/:id", s.renameCategory)
		admin.DELETE("/categories/:id", s.deleteCategory)

		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)

		admin.GET("/users", s.listUsers)
		admin.POST("/users", s.createUser)
		admin.PUT("/users/:id", s.updateUser)
		admin.DELETE("/users/:id", s.deleteUser)

		admin.PUT("/settings", s.updateSettings)

		admin.GET("/reports/orders", s.ordersReport)
		admin.GET("/reports/orders/:id/items", s.orderItemsReport)
	}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} loginResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, ok, err := s.svc.Users.Authenticate(c, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, domain.ErrInvalidCredentials)
		return
	}
	token, err := auth.Issue(s.secret, s.tokenTTL, *u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResp{Token: token, User: *u})
}

// @Summary Cafe settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Settings
// @Router /settings [get]
func (s *Server) getSettings(c *gin.Context) {
	name, err := s.svc.Settings.CafeName(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Settings{CafeName: name})
}

type settingsReq struct {
	CafeName string `json:"cafe_name"`
}

// @Summary Update cafe name
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body settingsReq true "Settings"
// @Success 200 {object} domain.Settings
// @Failure 400 {object} map[string]string
// @Router /settings [put]
func (s *Server) updateSettings(c *gin.Context) {
	var req settingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := s.svc.Settings.UpdateCafeName(c, req.CafeName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// pathID пишет 400 и возвращает false, если параметр не число
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := parseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
