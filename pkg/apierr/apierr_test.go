package apierr

import (
	"encoding/json"
	"testing"

	"github.com/valyala/fasthttp"
)

func TestWriteUpstreamFailureSetsEnvelopeAndStatus(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	WriteUpstreamFailure(ctx, "no provider could serve the request")

	if ctx.Response.StatusCode() != fasthttp.StatusBadGateway {
		t.Fatalf("expected 502, got %d", ctx.Response.StatusCode())
	}
	var got envelope
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error.Type != TypeUpstreamError || got.Error.Code != CodeDispatchFailed {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestWriteRateLimitSetsHeadersAndBody(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	WriteRateLimit(ctx, 10, 0, 1234)

	if ctx.Response.StatusCode() != fasthttp.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", ctx.Response.StatusCode())
	}
	if string(ctx.Response.Header.Peek("RateLimit-Limit")) != "10" {
		t.Fatalf("expected RateLimit-Limit header of 10")
	}
	if string(ctx.Response.Header.Peek("RateLimit-Reset")) != "1234" {
		t.Fatalf("expected RateLimit-Reset header of 1234")
	}

	var got rateLimitEnvelope
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Limit != 10 || got.Remaining != 0 || got.Reset != 1234 {
		t.Fatalf("unexpected body: %+v", got)
	}
}
