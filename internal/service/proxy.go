// Package service implements the core proxy forwarding logic.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"clipedge/internal/client"
	"clipedge/internal/config"
	"clipedge/internal/model"
)

// ErrUpstreamNotConfigured is returned when no upstream base URL is available
// from config or the UPSTREAM_BASE_URL environment.
var ErrUpstreamNotConfigured = errors.New("upstream base URL is not configured: set upstream.base_url or UPSTREAM_BASE_URL")

// UpstreamError wraps a failed upstream fetch together with the target URL
// that was attempted, so the handler can report it to the caller.
type UpstreamError struct {
	Target string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request to %s: %v", e.Target, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// hopByHopHeaders are connection-scoped and never forwarded by proxies.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// edgeNetworkHeaders describe the proxy hop or the edge network in front of
// it, not the original client in a form the upstream expects. They are
// stripped before forwarding. The list is the union of what the edge-worker
// and route-handler variants of this proxy used to strip.
var edgeNetworkHeaders = []string{
	"CF-Connecting-IP",
	"CF-Ray",
	"CF-IPCountry",
	"CF-Visitor",
	"CF-Worker",
	"CDN-Loop",
	"True-Client-IP",
	"X-Real-Ip",
	"X-Forwarded-For",
}

// Forwarder computes upstream target URLs and forwards requests. It holds no
// per-request state: the inbound-path to upstream-URL mapping is a pure
// function of configuration and the request.
type Forwarder struct {
	client *client.UpstreamClient
	logger *slog.Logger
	base   string // upstream base origin, no trailing slash; empty when unconfigured
	prefix string // inbound mount prefix, e.g. /api/proxy
}

// NewForwarder creates a Forwarder. An empty upstream base is accepted here;
// Forward reports ErrUpstreamNotConfigured per request instead, because the
// proxy runs in a per-request execution model with no startup phase to fail.
func NewForwarder(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*Forwarder, error) {
	base := cfg.Upstream.BaseURL
	if base != "" {
		if _, err := url.Parse(base); err != nil {
			return nil, fmt.Errorf("parse upstream base_url: %w", err)
		}
	}

	return &Forwarder{
		client: c,
		logger: logger.With("component", "forwarder"),
		base:   base,
		prefix: cfg.Proxy.Prefix,
	}, nil
}

// Configured reports whether an upstream base URL is set.
func (f *Forwarder) Configured() bool { return f.base != "" }

// TargetURL computes the upstream URL for an inbound path and query string:
// {base}{path with the mount prefix stripped}{original query}. An empty
// remainder maps to "/". The query string is carried verbatim, not re-encoded.
func (f *Forwarder) TargetURL(path, rawQuery string) (string, error) {
	if f.base == "" {
		return "", ErrUpstreamNotConfigured
	}

	rest := strings.TrimPrefix(path, f.prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	target := f.base + rest
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target, nil
}

// Forward sends a ProxyRequest to the upstream and returns the response with
// its headers rewritten. The body streams through untouched in both
// directions; the caller is responsible for closing the response body.
func (f *Forwarder) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := f.TargetURL(pr.Path, pr.RawQuery)
	if err != nil {
		return nil, err
	}

	header := scrubRequestHeader(pr.Header)
	header.Set("X-Forwarded-Host", pr.Host)
	header.Set("X-Forwarded-Proto", pr.Scheme)

	f.logger.Debug("forwarding request",
		"method", pr.Method,
		"target", target,
	)

	resp, err := f.client.DoStream(pr.Ctx, pr.Method, target, header, pr.Body)
	if err != nil {
		return nil, &UpstreamError{Target: target, Err: err}
	}

	rewriteResponseHeader(resp.Header)
	return resp, nil
}

// scrubRequestHeader copies the inbound headers minus hop-by-hop fields,
// edge-network identifiers, Host (re-added by the transport from the target
// URL; the original value travels as X-Forwarded-Host) and Content-Length
// (recomputed by the transport for the forwarded body).
func scrubRequestHeader(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	for _, h := range edgeNetworkHeaders {
		dst.Del(h)
	}
	dst.Del("Host")
	dst.Del("Content-Length")
	return dst
}

// rewriteResponseHeader drops the upstream Content-Length so the transport
// streams and recomputes framing itself, and forces Cache-Control: no-store —
// these are dynamic API responses no intermediary should cache. The body is
// never modified.
func rewriteResponseHeader(h http.Header) {
	h.Del("Content-Length")
	h.Set("Cache-Control", "no-store")
}
