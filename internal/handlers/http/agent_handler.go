package http

import (
	"net/http"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/infrastructure/middleware"
	"agentmart/pkg/errors"
	"agentmart/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agents ports.AgentService
}

func NewAgentHandler(agents ports.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

func (h *AgentHandler) SetupRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/agents")
	{
		api.GET("", h.ListAgents)
		api.GET("/:id", h.GetAgent)
		api.POST("", middleware.RequireCaller(), h.CreateAgent)
		api.PATCH("/:id", middleware.RequireCaller(), h.UpdateAgent)
		api.DELETE("/:id", middleware.RequireCaller(), h.DeleteAgent)
	}
}

func (h *AgentHandler) ListAgents(c *gin.Context) {
	query, err := agentQueryFrom(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := h.agents.List(c.Request.Context(), middleware.CallerIdentity(c), query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func agentIDParam(c *gin.Context) (domain.AgentID, bool) {
	id := c.Param("id")
	if err := validation.ValidateID(id, "agent id"); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()).WithContext("field", "id"))
		return "", false
	}
	return domain.AgentID(id), true
}

func (h *AgentHandler) GetAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}
	agent, err := h.agents.Get(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var draft domain.AgentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	agent, err := h.agents.Create(c.Request.Context(), middleware.CallerIdentity(c), draft)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}
	var patch domain.AgentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	agent, err := h.agents.Update(c.Request.Context(), middleware.CallerIdentity(c), id, patch)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}
	if err := h.agents.Delete(c.Request.Context(), middleware.CallerIdentity(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
