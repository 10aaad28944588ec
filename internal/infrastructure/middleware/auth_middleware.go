package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/internal/core/routing"
	"agentmart/internal/core/session"
	apperrors "agentmart/pkg/errors"
	"agentmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BackingMetrics interface {
	RecordBackingFailure(component string)
}

// IdentityMiddleware re-derives the caller from the identity store using
// the user id in the session cookie. The cookie is unsigned, so nothing
// downstream trusts its role or email.
//
// Unknown users get the cookie cleared. A store failure is logged and the
// request continues anonymous; the cookie is kept since the failure may be
// transient. On page loads the cookie is reissued with a fresh timestamp and
// the role currently on record.
func IdentityMiddleware(auth ports.AuthService, codec *session.Codec, metrics BackingMetrics, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimed := EdgeIdentity(c)
		if claimed == nil {
			c.Next()
			return
		}

		ident, err := auth.Resolve(c.Request.Context(), claimed.UserID)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			log.Infow("session for unknown user cleared",
				"user_id", claimed.UserID,
				"request_id", RequestIDFrom(c),
			)
			codec.Clear(c.Writer, c.Request)
			c.Next()
			return
		case err != nil:
			metrics.RecordBackingFailure("identity")
			log.Warnw("identity store unavailable, treating caller as logged out",
				"user_id", claimed.UserID,
				"error", err,
				"request_id", RequestIDFrom(c),
			)
			c.Next()
			return
		}

		c.Set(ContextIdentity, ident)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), string(ident.UserID)))

		if isPageLoad(c.Request) {
			if err := codec.Write(c.Writer, c.Request, session.Issue(ident, codec.Now())); err != nil {
				log.Warnw("failed to refresh session cookie", "user_id", ident.UserID, "error", err)
			}
		}
		c.Next()
	}
}

func isPageLoad(r *http.Request) bool {
	return r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/api/")
}

// RequireRole guards a role-scoped page with the verified identity. The
// edge gate has already routed on the cookie; this catches a cookie whose
// role no longer matches the store. After the edge loop guard has fired
// the mismatch is answered with 403 instead of another redirect.
func RequireRole(role domain.Role, signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerIdentity(c)
		if caller == nil {
			c.Redirect(redirectStatus(c.Request.Method), signInRedirect(signInPath, c.Request))
			c.Abort()
			return
		}
		if caller.Role == role {
			c.Next()
			return
		}
		if c.GetString(ContextEdgeReason) == routing.ReasonLoopGuard {
			_ = c.Error(apperrors.NewForbiddenError("this dashboard belongs to another role"))
			c.Abort()
			return
		}
		c.Redirect(redirectStatus(c.Request.Method), caller.Role.DashboardPath())
		c.Abort()
	}
}

// RequireCaller rejects anonymous API callers with 401.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerIdentity(c) == nil {
			_ = c.Error(apperrors.NewUnauthorizedError("sign in required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func signInRedirect(signInPath string, r *http.Request) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	if _, ok := routing.SafeRedirectTarget(target); !ok {
		return signInPath
	}
	return signInPath + "?" + routing.RedirectParam + "=" + url.QueryEscape(target)
}
