package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cafepos/internal/auth"
	"cafepos/internal/domain"
	"cafepos/internal/service"
)

// ownCart корзина доступна своему серверу и администратору
func (s *Server) ownCart(c *gin.Context) (service.CartView, bool) {
	cv, err := s.svc.Register.Get(c.Param("id"))
	if err == nil && cv.ServerID != auth.UserID(c) && auth.RoleOf(c) != domain.RoleAdmin {
		err = fmt.Errorf("%w: cart %s", domain.ErrNotFound, cv.ID)
	}
	if err != nil {
		writeError(c, err)
		return service.CartView{}, false
	}
	return cv, true
}

// @Summary Open a cart for the logged in server
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.CartView
// @Router /carts [post]
func (s *Server) openCart(c *gin.Context) {
	c.JSON(http.StatusCreated, s.svc.Register.Open(auth.UserID(c)))
}

// @Summary Get cart
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /carts/{id} [get]
func (s *Server) getCart(c *gin.Context) {
	cv, ok := s.ownCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cv)
}

type addItemReq struct {
	ProductID int64 `json:"product_id"`
}

// @Summary Add one unit of a product
// @Tags carts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param input body addItemReq true "Product"
// @Success 200 {object} service.CartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /carts/{id}/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	cv, ok := s.ownCart(c)
	if !ok {
		return
	}
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cv, err := s.svc.Register.Add(c, cv.ID, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// @Summary Remove one unit of a product
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param product_id path int true "Product ID"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /carts/{id}/items/{product_id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	s.editCart(c, s.svc.Register.Remove)
}

// @Summary Discard a whole cart line
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param product_id path int true "Product ID"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /carts/{id}/lines/{product_id} [delete]
func (s *Server) discardCartLine(c *gin.Context) {
	s.editCart(c, s.svc.Register.Discard)
}

func (s *Server) editCart(c *gin.Context, fn func(string, int64) (service.CartView, error)) {
	cv, ok := s.ownCart(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	cv, err := fn(cv.ID, productID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// @Summary Cancel and close a cart
// @Tags carts
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /carts/{id} [delete]
func (s *Server) cancelCart(c *gin.Context) {
	cv, ok := s.ownCart(c)
	if !ok {
		return
	}
	if err := s.svc.Register.Cancel(cv.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Pay: save the order and emit its receipt
// @Tags carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 201 {object} service.Payment
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /carts/{id}/pay [post]
func (s *Server) payCart(c *gin.Context) {
	cv, ok := s.ownCart(c)
	if !ok {
		return
	}
	pay, err := s.svc.Register.Pay(c, cv.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pay)
}

// @Summary Receipt text of an order
// @Tags orders
// @Produce plain
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/receipt [get]
func (s *Server) getReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	text, err := s.svc.Receipts.RenderReceipt(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, "%s", text)
}
