// Package apierr writes the gateway's structured JSON error envelopes onto
// the fasthttp response.
//
// Directly grounded in the teacher's own pkg/apierr package: same envelope
// shape and fasthttp.RequestCtx-based Write, trimmed to the two envelopes
// this gateway's dispatcher actually emits — the generic upstream-failure
// envelope and the rate-limit envelope carrying the admission decision's
// limit/remaining/reset fields (§6).
package apierr

import (
	"encoding/json"
	"strconv"

	"github.com/valyala/fasthttp"
)

// ErrorType constants.
const (
	TypeUpstreamError  = "upstream_error"
	TypeRateLimitError = "rate_limit_error"
	TypeServerError    = "server_error"
)

// Code constants.
const (
	CodeDispatchFailed    = "dispatch_failed"
	CodeRateLimitExceeded = "rate_limit_exceeded"
	CodeInternalError     = "internal_error"
)

// APIError is the generic error body.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type envelope struct {
	Error APIError `json:"error"`
}

// Write writes the error as JSON to the fasthttp response with the given HTTP status.
func Write(ctx *fasthttp.RequestCtx, status int, message, errType, code string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(envelope{Error: APIError{Message: message, Type: errType, Code: code}})
	ctx.SetBody(body)
}

// WriteUpstreamFailure sends the 502 envelope for a fully exhausted dispatch
// (every candidate provider failed, or failover was disabled).
func WriteUpstreamFailure(ctx *fasthttp.RequestCtx, message string) {
	Write(ctx, fasthttp.StatusBadGateway, message, TypeUpstreamError, CodeDispatchFailed)
}

// rateLimitEnvelope is the body shape named in §6: {error, limit, remaining, reset}.
type rateLimitEnvelope struct {
	Error     string `json:"error"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     int64  `json:"reset"`
}

// WriteRateLimit writes the 429 rate-limit envelope and the RateLimit-* headers.
func WriteRateLimit(ctx *fasthttp.RequestCtx, limit, remaining int, reset int64) {
	ctx.Response.Header.Set("RateLimit-Limit", strconv.Itoa(limit))
	ctx.Response.Header.Set("RateLimit-Remaining", strconv.Itoa(remaining))
	ctx.Response.Header.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))
	ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(rateLimitEnvelope{Error: "rate limit exceeded", Limit: limit, Remaining: remaining, Reset: reset})
	ctx.SetBody(body)
}
