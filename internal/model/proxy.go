// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a client request to be forwarded upstream.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string // inbound URL path as received (percent-encoding preserved), still carrying the proxy mount prefix
	RawQuery string // original query string, forwarded verbatim
	Host     string // original Host header value
	Scheme   string // inbound request scheme (http or https)
	Header   http.Header
	Body     io.ReadCloser
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
