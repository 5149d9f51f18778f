package mid

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/web"

	"github.com/tokenized/logger"

	"go.opencensus.io/trace"
)

const (
	// HeaderXRequestID is the x-request-id HTTP header
	HeaderXRequestID = "X-Request-Id"

	// HeaderXTrace is the x-trace HTTP header
	HeaderXTrace = "X-Trace"

	// HeaderXForwardedFor is a constant for the x-forwarded-for header
	HeaderXForwardedFor = "X-Forwarded-For"
)

// RequestLogger writes some information about the request to the logs.
func RequestLogger(next web.Handler) web.Handler {

	// Wrap this handler around the next one provided.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request,
		params map[string]string) error {
		ctx, span := trace.StartSpan(ctx, "internal.mid.RequestLogger")
		defer span.End()

		v := ctx.Value(web.KeyValues).(*web.Values)

		// Tag log entries for this request with its trace ID, preferring one
		// supplied by an upstream proxy.
		ctx = logger.ContextWithLogTrace(ctx, buildTraceID(r.Header, v.TraceID))

		err := next(ctx, w, r, params)

		// nanoseconds(billion) 1e9, milliseconds(thousand) 1e3, so divide
		// nanoseconds by 1e6 for milliseconds.
		elapsed := float64(time.Since(v.Now).Nanoseconds()) / 1e6

		fields := []logger.Field{
			logger.Formatter("elapsed", "%06f", elapsed), // use %06f so it is fixed width
			logger.Int("status", v.StatusCode),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("type", "http"),
			logger.String("remote", getRemoteAddress(r)),
		}

		if len(r.URL.RawQuery) > 0 {
			fields = append(fields, logger.String("params", r.URL.RawQuery))
		}

		logger.InfoWithFields(ctx, fields, "")

		// For consistency return the error we received.
		return err
	}

	return h
}

// getRemoteAddress returns the remote address for the HTTP Request.
func getRemoteAddress(r *http.Request) string {
	// Try the header first, falling back to the address in the request.
	addr := r.Header.Get(HeaderXForwardedFor)

	if len(addr) > 0 {
		// The left-most address is the client address, with each hop adding
		// their address to the list.
		return strings.Split(strings.Replace(addr, " ", "", -1), ",")[0]
	}

	return r.RemoteAddr
}

// buildTraceID returns a trace ID from a header if provided, otherwise the
// span trace ID is used.
func buildTraceID(h http.Header, fallback string) string {
	t := h.Get(HeaderXTrace)
	if len(t) > 0 {
		return t
	}

	v := h.Get(HeaderXRequestID)
	if len(v) > 0 {
		return v
	}

	return fallback
}
