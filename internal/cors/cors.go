// Package cors implements the Access-Control header contract the proxy
// guarantees on every response, including error responses and preflights.
package cors

import (
	"net/http"
	"strings"
)

// allowMethods is the fixed method list advertised to browsers.
const allowMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"

// DefaultAllowHeaders is the fallback Access-Control-Allow-Headers list used
// when a request carries no Access-Control-Request-Headers of its own. It
// covers content negotiation and auth headers.
var DefaultAllowHeaders = []string{
	"Accept",
	"Accept-Language",
	"Authorization",
	"Content-Type",
	"Origin",
	"X-Requested-With",
}

// Policy decides which origin value to grant and renders the full header block.
//
// EchoOrigin reflects whatever Origin the request carries, trusting every
// caller. That is a deliberate relaxation so many preview/staging frontends
// work without per-deploy configuration; set EchoOrigin false and fill
// AllowedOrigins for a strict deployment.
type Policy struct {
	EchoOrigin     bool
	AllowedOrigins []string
	AllowHeaders   []string
}

// NewPolicy returns a Policy with the echo-everything default and the given
// fallback allow-headers list (nil means DefaultAllowHeaders).
func NewPolicy(echoOrigin bool, allowedOrigins, allowHeaders []string) *Policy {
	if len(allowHeaders) == 0 {
		allowHeaders = DefaultAllowHeaders
	}
	return &Policy{
		EchoOrigin:     echoOrigin,
		AllowedOrigins: allowedOrigins,
		AllowHeaders:   allowHeaders,
	}
}

// AllowOrigin maps a request Origin to the Access-Control-Allow-Origin value.
// It is a pure function of the policy and the argument:
//   - echo mode: the origin itself, or "*" when the request carried none;
//   - allow-list mode: the origin when listed, otherwise "null" so the header
//     is present on every response but grants nothing.
func (p *Policy) AllowOrigin(requestOrigin string) string {
	if p.EchoOrigin {
		if requestOrigin == "" {
			return "*"
		}
		return requestOrigin
	}
	for _, o := range p.AllowedOrigins {
		if o == requestOrigin {
			return requestOrigin
		}
	}
	return "null"
}

// allowHeaders echoes the preflight's Access-Control-Request-Headers when
// present, falling back to the configured fixed list.
func (p *Policy) allowHeaders(req *http.Request) string {
	if requested := req.Header.Get("Access-Control-Request-Headers"); requested != "" {
		return requested
	}
	return strings.Join(p.AllowHeaders, ", ")
}

// Apply writes the full CORS header block onto h. Every key is Set, never
// Added, so applying twice yields the same header set as applying once and
// upstream-supplied Access-Control values are overwritten rather than
// duplicated. Vary: Origin is required because Allow-Origin varies with the
// request's Origin.
func (p *Policy) Apply(h http.Header, req *http.Request) {
	h.Set("Access-Control-Allow-Origin", p.AllowOrigin(req.Header.Get("Origin")))
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", p.allowHeaders(req))
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Expose-Headers", "*")
	h.Set("Vary", "Origin")
}
