package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// priceInput принимает 12.5, "12.50" и "12,50"; set false, если поля нет в JSON
type priceInput struct {
	decimal.Decimal
	set bool
}

func (p *priceInput) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	d, err := domain.ParsePrice(s)
	if err != nil {
		return err
	}
	p.Decimal = d
	p.set = true
	return nil
}

type categoryReq struct {
	Name string `json:"name"`
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Catalog.ListCategories(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Products of a category
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {array} domain.Product
// @Failure 404 {object} map[string]string
// @Router /categories/{id}/products [get]
func (s *Server) listCategoryProducts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := s.svc.Catalog.ProductsByCategory(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create category
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body categoryReq true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Router /categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cat, err := s.svc.Catalog.CreateCategory(c, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary Rename category
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param input body categoryReq true "Category"
// @Success 200 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /categories/{id} [put]
func (s *Server) renameCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cat, err := s.svc.Catalog.RenameCategory(c, id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary Delete category
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /categories/{id} [delete]
func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteCategory(c, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type productReq struct {
	Name       string     `json:"name"`
	Price      priceInput `json:"price" swaggertype:"string" example:"12,50"`
	CategoryID int64      `json:"category_id"`
}

// @Summary List products
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param category_id query int false "Category ID"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{NameSubstring: c.Query("q")}
	if v := c.Query("category_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil || x < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		f.CategoryID = x
	}
	list, err := s.svc.Catalog.ListProducts(c, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Catalog.GetProduct(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Create product
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := bindProduct(c, &req); err != nil {
		writeError(c, err)
		return
	}
	p, err := s.svc.Catalog.CreateProduct(c, domain.Product{Name: req.Name, Price: req.Price.Decimal, CategoryID: req.CategoryID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productReq
	if err := bindProduct(c, &req); err != nil {
		writeError(c, err)
		return
	}
	p, err := s.svc.Catalog.UpdateProduct(c, domain.Product{ID: id, Name: req.Name, Price: req.Price.Decimal, CategoryID: req.CategoryID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteProduct(c, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindProduct ошибка разбора цены или её отсутствие становится ErrValidation
func bindProduct(c *gin.Context, req *productReq) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: invalid product payload: %v", domain.ErrValidation, err)
	}
	if !req.Price.set {
		return fmt.Errorf("%w: price is required", domain.ErrValidation)
	}
	return nil
}
