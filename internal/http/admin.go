package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cafepos/internal/domain"
)

type userReq struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param all query bool false "Include the admin account"
// @Success 200 {array} domain.User
// @Router /users [get]
func (s *Server) listUsers(c *gin.Context) {
	list, err := s.svc.Users.ListServers(c, c.Query("all") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body userReq true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} map[string]string
// @Router /users [post]
func (s *Server) createUser(c *gin.Context) {
	var req userReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := s.svc.Users.CreateServer(c, req.Username, req.Password, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary Update username and password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param input body userReq true "User"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req userReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := s.svc.Users.UpdateServer(c, id, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Users.DeleteServer(c, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Orders between two dates
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} service.Report
// @Failure 400 {object} map[string]string
// @Router /reports/orders [get]
func (s *Server) ordersReport(c *gin.Context) {
	rep, err := s.svc.Reports.OrdersInRange(c, c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// @Summary Lines of one order
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {array} domain.ReportLine
// @Failure 404 {object} map[string]string
// @Router /reports/orders/{id}/items [get]
func (s *Server) orderItemsReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lines, err := s.svc.Reports.OrderItems(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}
