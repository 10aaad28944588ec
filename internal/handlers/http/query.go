package http

import (
	"fmt"
	"strconv"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/pkg/errors"
	"agentmart/pkg/validation"

	"github.com/gin-gonic/gin"
)

const maxSearchLength = 100

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.NewInvalidInputError(fmt.Sprintf("%s must be a positive integer", key)).
			WithContext("field", key)
	}
	return n, nil
}

func searchQuery(c *gin.Context) (string, error) {
	s := strings.TrimSpace(c.Query("search"))
	if len(s) > maxSearchLength {
		return "", errors.NewInvalidInputError("search is too long").WithContext("max", maxSearchLength)
	}
	return s, nil
}

// agentQueryFrom parses page, page_size, status, category, featured and
// search. Page sizes above the maximum are clamped.
func agentQueryFrom(c *gin.Context) (domain.AgentQuery, error) {
	var q domain.AgentQuery

	page, err := intQuery(c, "page", 1)
	if err != nil {
		return q, err
	}
	size, err := intQuery(c, "page_size", domain.DefaultPageSize)
	if err != nil {
		return q, err
	}
	q.Page = domain.Page{Number: page, Size: size}.Normalize()

	if s := c.Query("status"); s != "" {
		status, err := domain.ParseAgentStatus(s)
		if err != nil {
			return q, errors.NewInvalidInputError(err.Error()).WithContext("field", "status")
		}
		q.Criteria.Status = status
	}
	if cat := strings.ToLower(strings.TrimSpace(c.Query("category"))); cat != "" {
		if err := validation.ValidateCategory(cat); err != nil {
			return q, errors.NewInvalidInputError(err.Error()).WithContext("field", "category")
		}
		q.Criteria.Category = cat
	}
	if f := c.Query("featured"); f != "" {
		featured, err := strconv.ParseBool(f)
		if err != nil {
			return q, errors.NewInvalidInputError("featured must be a boolean").WithContext("field", "featured")
		}
		q.Criteria.Featured = &featured
	}
	if q.Criteria.Search, err = searchQuery(c); err != nil {
		return q, err
	}
	return q, nil
}

func userQueryFrom(c *gin.Context) (domain.UserQuery, error) {
	var q domain.UserQuery

	if r := c.Query("role"); r != "" {
		role, err := domain.ParseRole(r)
		if err != nil {
			return q, errors.NewInvalidInputError(err.Error()).WithContext("field", "role")
		}
		q.Role = role
	}
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return q, err
	}
	size, err := intQuery(c, "page_size", domain.DefaultPageSize)
	if err != nil {
		return q, err
	}
	normalized := domain.Page{Number: page, Size: size}.Normalize()
	q.Page, q.PageSize = normalized.Number, normalized.Size

	if q.Search, err = searchQuery(c); err != nil {
		return q, err
	}
	return q, nil
}
