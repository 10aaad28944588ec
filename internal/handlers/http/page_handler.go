package http

import (
	"net/http"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

const (
	homeFeatured    = 6
	dashboardRecent = 5
)

// PageHandler serves the page models of the marketplace. Each page is a
// JSON document; rendering happens client side.
type PageHandler struct {
	agents     ports.AgentService
	admin      ports.AdminService
	signInPath string
}

func NewPageHandler(agents ports.AgentService, admin ports.AdminService, signInPath string) *PageHandler {
	return &PageHandler{agents: agents, admin: admin, signInPath: signInPath}
}

func (h *PageHandler) SetupRoutes(router gin.IRouter) {
	router.GET("/", h.Home)
	router.GET("/agents", h.Catalogue)
	router.GET("/agents/:id", h.AgentDetail)
	router.GET("/dashboard", h.DashboardRoot)

	creator := router.Group("/dashboard/creator", middleware.RequireRole(domain.RoleCreator, h.signInPath))
	{
		creator.GET("", h.CreatorDashboard)
		creator.GET("/agents", h.AgentList("creator_agents"))
		creator.GET("/stats", h.CreatorStats)
	}

	enterprise := router.Group("/dashboard/enterprise", middleware.RequireRole(domain.RoleEnterprise, h.signInPath))
	{
		enterprise.GET("", h.EnterpriseDashboard)
		enterprise.GET("/agents", h.AgentList("enterprise_agents"))
	}

	admin := router.Group("/dashboard/admin", middleware.RequireRole(domain.RoleAdmin, h.signInPath))
	{
		admin.GET("", h.AdminDashboard)
		admin.GET("/users", h.AdminUsers)
		admin.GET("/agents", h.AgentList("admin_agents"))
	}
}

func page(name string, caller *domain.Identity) gin.H {
	return gin.H{"page": name, "user": caller}
}

func (h *PageHandler) Home(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	featured := true
	result, err := h.agents.List(c.Request.Context(), caller, domain.AgentQuery{
		Criteria: domain.AgentCriteria{Featured: &featured},
		Page:     domain.Page{Number: 1, Size: homeFeatured},
	})
	if err != nil {
		c.Error(err)
		return
	}
	body := page("home", caller)
	body["featured"] = result.Agents
	c.JSON(http.StatusOK, body)
}

func (h *PageHandler) Catalogue(c *gin.Context) {
	h.AgentList("catalogue")(c)
}

// AgentList renders one page of agents visible to the caller under the
// given page name.
func (h *PageHandler) AgentList(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, err := agentQueryFrom(c)
		if err != nil {
			c.Error(err)
			return
		}
		caller := middleware.CallerIdentity(c)
		result, err := h.agents.List(c.Request.Context(), caller, query)
		if err != nil {
			c.Error(err)
			return
		}
		body := page(name, caller)
		body["results"] = result
		c.JSON(http.StatusOK, body)
	}
}

func (h *PageHandler) AgentDetail(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	agent, err := h.agents.Get(c.Request.Context(), caller, domain.AgentID(c.Param("id")))
	if err != nil {
		c.Error(err)
		return
	}
	body := page("agent", caller)
	body["agent"] = agent
	c.JSON(http.StatusOK, body)
}

// DashboardRoot only runs when the edge gate let /dashboard through.
func (h *PageHandler) DashboardRoot(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	if caller == nil {
		c.Redirect(http.StatusTemporaryRedirect, h.signInPath)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, caller.Role.DashboardPath())
}

func (h *PageHandler) CreatorDashboard(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	ctx := c.Request.Context()

	counts, err := h.agents.Counts(ctx, caller)
	if err != nil {
		c.Error(err)
		return
	}
	recent, err := h.agents.List(ctx, caller, domain.AgentQuery{Page: domain.Page{Number: 1, Size: dashboardRecent}})
	if err != nil {
		c.Error(err)
		return
	}
	body := page("creator_dashboard", caller)
	body["counts"] = counts
	body["recent_agents"] = recent.Agents
	c.JSON(http.StatusOK, body)
}

func (h *PageHandler) CreatorStats(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	counts, err := h.agents.Counts(c.Request.Context(), caller)
	if err != nil {
		c.Error(err)
		return
	}
	body := page("creator_stats", caller)
	body["counts"] = counts
	c.JSON(http.StatusOK, body)
}

func (h *PageHandler) EnterpriseDashboard(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	ctx := c.Request.Context()

	counts, err := h.agents.Counts(ctx, caller)
	if err != nil {
		c.Error(err)
		return
	}
	featured := true
	picks, err := h.agents.List(ctx, caller, domain.AgentQuery{
		Criteria: domain.AgentCriteria{Featured: &featured},
		Page:     domain.Page{Number: 1, Size: dashboardRecent},
	})
	if err != nil {
		c.Error(err)
		return
	}
	body := page("enterprise_dashboard", caller)
	body["counts"] = counts
	body["featured"] = picks.Agents
	c.JSON(http.StatusOK, body)
}

func (h *PageHandler) AdminDashboard(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	overview, err := h.admin.Overview(c.Request.Context(), caller)
	if err != nil {
		c.Error(err)
		return
	}
	body := page("admin_dashboard", caller)
	body["overview"] = overview
	c.JSON(http.StatusOK, body)
}

func (h *PageHandler) AdminUsers(c *gin.Context) {
	query, err := userQueryFrom(c)
	if err != nil {
		c.Error(err)
		return
	}
	caller := middleware.CallerIdentity(c)
	users, err := h.admin.ListUsers(c.Request.Context(), caller, query)
	if err != nil {
		c.Error(err)
		return
	}
	body := page("admin_users", caller)
	body["users"] = users
	c.JSON(http.StatusOK, body)
}
