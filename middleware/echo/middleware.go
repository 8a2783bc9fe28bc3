package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/middleware"
)

// DecodeJSON decodes request JSON against s, stores the values in the
// request context on success, or returns 400 with Issues when decoding fails.
func DecodeJSON(s *goshape.CanonicalSchema, opts ...goshape.DecodeOpt) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			vals, err := middleware.Decode(c.Request(), s, opts...)
			if err != nil {
				if iss, ok := goshape.AsIssues(err); ok {
					return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				}
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			ctx := middleware.ContextWithDecoded(c.Request().Context(), vals)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetProjection fetches the projection decoded from a single-object body.
func GetProjection(c echo.Context) (*goshape.Projection, bool) {
	return middleware.ProjectionFromContext(c.Request().Context())
}
