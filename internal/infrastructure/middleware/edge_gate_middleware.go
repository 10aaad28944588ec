package middleware

import (
	"net/http"

	"agentmart/internal/core/routing"
	"agentmart/internal/core/session"
	"agentmart/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EdgeMetrics interface {
	RecordEdgeDecision(action, reason string)
	RecordSessionRejection(kind string)
}

// EdgeGateMiddleware runs the path-prefix gate before any handler. Each
// request gets exactly one outcome: pass through, redirect to sign-in, or
// redirect to the caller's own dashboard. An invalid cookie is cleared
// whatever the outcome.
func EdgeGateMiddleware(codec *session.Codec, gate *routing.Gate, metrics EdgeMetrics, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, desc := codec.Read(c.Request)
		if state.Invalid() {
			metrics.RecordSessionRejection(state.String())
		}

		req := routing.Request{
			Path:     c.Request.URL.Path,
			RawQuery: c.Request.URL.RawQuery,
			Session:  state,
		}
		if state == session.StateValid {
			req.Identity = desc.Identity()
		}

		_, span := tracing.TraceEdgeDecision(c.Request.Context(), req.Path)
		decision := gate.Decide(req)
		span.SetAttributes(
			tracing.EdgeActionKey.String(decision.Action.String()),
			tracing.EdgeReasonKey.String(decision.Reason),
		)
		span.End()

		metrics.RecordEdgeDecision(decision.Action.String(), decision.Reason)
		c.Set(ContextEdgeReason, decision.Reason)

		if decision.ClearCookie {
			codec.Clear(c.Writer, c.Request)
		}

		if decision.Action != routing.ActionAllow {
			logger.Debugw("edge redirect",
				"path", req.Path,
				"action", decision.Action.String(),
				"reason", decision.Reason,
				"location", decision.Location,
				"request_id", RequestIDFrom(c),
			)
			c.Redirect(redirectStatus(c.Request.Method), decision.Location)
			c.Abort()
			return
		}

		if decision.Reason == routing.ReasonLoopGuard {
			logger.Warnw("redirect loop guard tripped",
				"path", req.Path,
				"user_id", req.Identity.UserID,
				"request_id", RequestIDFrom(c),
			)
		}

		if req.Identity != nil {
			c.Set(ContextEdgeIdentity, req.Identity)
		}
		c.Next()
	}
}

// redirectStatus keeps the method for safe requests and turns anything
// else into a GET on the target.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}
