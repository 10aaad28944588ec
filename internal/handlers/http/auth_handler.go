package http

import (
	"errors"
	"net/http"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/core/routing"
	"agentmart/internal/core/session"
	"agentmart/internal/infrastructure/middleware"
	apperrors "agentmart/pkg/errors"
	"agentmart/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SignInMetrics interface {
	RecordSignIn(outcome string)
}

type AuthHandler struct {
	auth    ports.AuthService
	codec   *session.Codec
	rules   routing.Rules
	metrics SignInMetrics
	logger  *zap.SugaredLogger
}

func NewAuthHandler(auth ports.AuthService, codec *session.Codec, rules routing.Rules, metrics SignInMetrics, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		codec:   codec,
		rules:   rules,
		metrics: metrics,
		logger:  logger,
	}
}

// SetupRoutes registers the auth surface. authLimit guards credential
// submission only.
func (h *AuthHandler) SetupRoutes(router gin.IRouter, authLimit gin.HandlerFunc) {
	router.GET("/signin", h.SignInPage)
	router.GET("/signup", h.SignUpPage)
	router.POST("/signin", authLimit, h.SignIn)
	router.POST("/signup", authLimit, h.SignUp)
	router.POST("/signout", h.SignOut)
	router.GET("/redirect", h.Redirect)
	router.GET("/api/protected/session", h.Session)
}

type SignInRequest struct {
	Email    string `json:"email" form:"email" binding:"required,max=254"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
	Redirect string `json:"redirect" form:"redirect"`
}

type SignUpRequest struct {
	Email    string `json:"email" form:"email" binding:"required,max=254"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
	Name     string `json:"name" form:"name" binding:"max=100"`
	Role     string `json:"role" form:"role" binding:"required"`
}

func (h *AuthHandler) SignInPage(c *gin.Context) {
	page := gin.H{"page": "signin"}
	if target, ok := routing.SafeRedirectTarget(c.Query(routing.RedirectParam)); ok {
		page["redirect"] = target
	}
	c.JSON(http.StatusOK, page)
}

func (h *AuthHandler) SignUpPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":  "signup",
		"roles": []domain.Role{domain.RoleCreator, domain.RoleEnterprise},
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.RecordSignIn("invalid_input")
		c.Error(apperrors.NewInvalidInputError("email and password are required"))
		return
	}

	ident, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		outcome := signInOutcome(err)
		h.metrics.RecordSignIn(outcome)
		h.logger.Warnw("sign-in rejected",
			"email", utils.MaskEmail(req.Email),
			"outcome", outcome,
			"request_id", middleware.RequestIDFrom(c),
		)
		c.Error(err)
		return
	}
	if err := h.codec.Write(c.Writer, c.Request, session.Issue(ident, h.codec.Now())); err != nil {
		c.Error(err)
		return
	}
	h.metrics.RecordSignIn("success")
	h.logger.Infow("user signed in", "user_id", ident.UserID, "role", ident.Role, "request_id", middleware.RequestIDFrom(c))

	q := c.Request.URL.Query()
	if req.Redirect != "" {
		q.Set(routing.RedirectParam, req.Redirect)
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     ident,
		"redirect": routing.RedirectTarget(q, ident),
	})
}

func signInOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrBackingServiceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// SignUp registers a creator or enterprise account and signs it in. Admin
// accounts are only created by seeding.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("email, password and role are required"))
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		c.Error(err)
		return
	}

	ident, err := h.auth.SignUp(c.Request.Context(), ports.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Role:     role,
	})
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.codec.Write(c.Writer, c.Request, session.Issue(ident, h.codec.Now())); err != nil {
		c.Error(err)
		return
	}
	h.logger.Infow("user signed up", "user_id", ident.UserID, "role", ident.Role, "request_id", middleware.RequestIDFrom(c))

	c.JSON(http.StatusCreated, gin.H{
		"user":     ident,
		"redirect": ident.Role.DashboardPath(),
	})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	h.codec.Clear(c.Writer, c.Request)
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

// Redirect is the post sign-in landing: it forwards a verified caller to the
// redirect/from target or their dashboard, and anyone else to sign-in with
// the query preserved.
func (h *AuthHandler) Redirect(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	if caller == nil {
		location := h.rules.SignInPath
		if raw := c.Request.URL.RawQuery; raw != "" {
			location += "?" + raw
		}
		c.Redirect(http.StatusTemporaryRedirect, location)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, routing.RedirectTarget(c.Request.URL.Query(), caller))
}

func (h *AuthHandler) Session(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	if caller == nil {
		c.Error(apperrors.NewUnauthorizedError("sign in required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      caller,
		"dashboard": caller.Role.DashboardPath(),
	})
}
