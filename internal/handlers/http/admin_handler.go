package http

import (
	"net/http"

	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the admin aggregates. Authorization is the admin
// service's job; anonymous callers are turned away before it.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) SetupRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/admin", middleware.RequireCaller())
	{
		api.GET("/stats", h.GetStats)
		api.GET("/overview", h.GetOverview)
		api.GET("/users", h.ListUsers)
	}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context(), middleware.CallerIdentity(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetOverview(c *gin.Context) {
	overview, err := h.admin.Overview(c.Request.Context(), middleware.CallerIdentity(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	query, err := userQueryFrom(c)
	if err != nil {
		c.Error(err)
		return
	}
	users, err := h.admin.ListUsers(c.Request.Context(), middleware.CallerIdentity(c), query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}
