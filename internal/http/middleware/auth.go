package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/operators"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

const (
	CtxKeyOperator   = "operator"
	CtxKeyOperatorID = "operator_id"
)

// RequireOperator authenticates a bearer token (HS256) and resolves the
// token subject to exactly one operator account. Every route behind this
// middleware is tenant-scoped to that operator.
func RequireOperator(secret string, resolver *operators.Resolver) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			Fail(c, apperr.UnauthorizedErr("authentication required"))
			return
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !tok.Valid {
			Fail(c, apperr.UnauthorizedErr("invalid or expired token"))
			return
		}

		subject, err := tok.Claims.GetSubject()
		if err != nil || subject == "" {
			Fail(c, apperr.UnauthorizedErr("token has no subject"))
			return
		}

		op, err := resolver.BySubject(c.Request.Context(), subject)
		if err != nil {
			Fail(c, err)
			return
		}

		c.Set(CtxKeyOperator, op)
		c.Set(CtxKeyOperatorID, op.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func GetOperator(c *gin.Context) (operators.Operator, bool) {
	v, ok := c.Get(CtxKeyOperator)
	if !ok {
		return operators.Operator{}, false
	}
	op, ok := v.(operators.Operator)
	return op, ok
}

func GetOperatorID(c *gin.Context) string {
	if v, ok := c.Get(CtxKeyOperatorID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
