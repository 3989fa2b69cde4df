package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clipedge/internal/config"
	"clipedge/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The proxy
// answers every method on the mount prefix and everything below it; the bare
// prefix maps to the upstream root.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, health *HealthHandler, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.Any(cfg.Proxy.Prefix, proxy.Handle)
	e.Any(cfg.Proxy.Prefix+"/*", proxy.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}
}
