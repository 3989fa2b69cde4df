package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"clipedge/internal/cors"
	"clipedge/internal/model"
	"clipedge/internal/service"
)

// ProxyHandler forwards API requests to the configured upstream and
// guarantees the CORS header block on every response it produces, error
// responses included: a browser must always be able to read the outcome.
type ProxyHandler struct {
	forwarder *service.Forwarder
	policy    *cors.Policy
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(f *service.Forwarder, p *cors.Policy, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		forwarder: f,
		policy:    p,
		logger:    logger.With("component", "proxy_handler"),
	}
}

// Handle proxies the request to the upstream API and streams the response back.
// OPTIONS preflights are answered locally with 204 and never contact the
// upstream: browsers expect fast preflight turnaround and the upstream may not
// implement OPTIONS at all.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	res := c.Response()

	h.policy.Apply(res.Header(), req)

	if req.Method == http.MethodOptions {
		return c.NoContent(http.StatusNoContent)
	}

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     req.URL.EscapedPath(),
		RawQuery: req.URL.RawQuery,
		Host:     req.Host,
		Scheme:   c.Scheme(),
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.forwarder.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			res.Header().Add(key, v)
		}
	}
	// Reapply after the upstream header copy so any Access-Control value the
	// upstream emitted is overwritten, not duplicated. Apply only ever Sets,
	// so this is idempotent.
	h.policy.Apply(res.Header(), req)

	res.WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the HTTP status
	// code has already been sent, so the client receives a truncated
	// response with the original status. This is an inherent trade-off of
	// streaming proxies — we log the error for observability.
	if _, err := io.Copy(res, resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// mapError translates forwarding failures into the proxy's JSON error bodies.
// Upstream application errors (4xx/5xx responses) never reach here; they pass
// through verbatim in Handle. No error class is retried.
func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrUpstreamNotConfigured) {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Upstream base URL is not configured",
		})
	}

	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error":  "Upstream request failed",
			"detail": ue.Err.Error(),
			"target": ue.Target,
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error":  "Upstream request failed",
		"detail": err.Error(),
		"target": "",
	})
}
