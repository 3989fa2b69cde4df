package middleware

import (
	"github.com/labstack/echo/v4"

	"clipedge/internal/cors"
)

// CORSHeaders returns an Echo middleware that applies the CORS header block
// before the handler runs. Responses written by other middleware — body-limit
// rejections, rate-limit 429s, router 404s — then carry the block too, so a
// browser can read them instead of reporting an opaque CORS failure. The
// proxy handler reapplies the same block via Set, which is idempotent.
func CORSHeaders(p *cors.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.Apply(c.Response().Header(), c.Request())
			return next(c)
		}
	}
}
