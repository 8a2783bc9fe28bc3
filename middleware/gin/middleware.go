package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/middleware"
)

// DecodeJSON decodes the request body against s (with DefaultDecodeOpt when
// opts is empty), stores the values in the request context, and aborts with
// 400 and an issue payload when decoding fails.
func DecodeJSON(s *goshape.CanonicalSchema, opts ...goshape.DecodeOpt) gin.HandlerFunc {
	return func(c *gin.Context) {
		vals, err := middleware.Decode(c.Request, s, opts...)
		if err != nil {
			if iss, ok := goshape.AsIssues(err); ok {
				c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithDecoded(c.Request.Context(), vals))
		c.Next()
	}
}

// GetProjection fetches the projection decoded from a single-object body.
func GetProjection(c *gin.Context) (*goshape.Projection, bool) {
	return middleware.ProjectionFromContext(c.Request.Context())
}
