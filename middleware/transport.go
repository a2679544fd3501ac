package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Transport wraps a RoundTripper with client-side behaviour.
type Transport func(http.RoundTripper) http.RoundTripper

// ChainTransport wraps base so that the first middleware sees the request first.
func ChainTransport(base http.RoundTripper, middlewares ...Transport) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			base = middlewares[i](base)
		}
	}
	return base
}

// WithRequestID stores id on ctx so RequestID reuses it for the outgoing request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID stamps every outgoing request with an X-Request-ID header.
func RequestID() Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			id := RequestIDFrom(req.Context())
			if id == "" {
				id = uuid.New().String()
			}
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, id)
			return next.RoundTrip(req)
		})
	}
}

// Logging logs each request and its outcome with structured fields.
func Logging(logger *logrus.Logger) Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"request_id": req.Header.Get(RequestIDHeader),
				"method":     req.Method,
				"url":        req.URL.String(),
			})
			entry.Debug("Request started")

			resp, err := next.RoundTrip(req)
			duration := time.Since(start)
			if err != nil {
				entry.WithError(err).WithField("duration", duration).Warn("Request failed")
				return nil, err
			}

			entry = entry.WithFields(logrus.Fields{
				"status":   resp.StatusCode,
				"duration": duration,
				"size":     resp.ContentLength,
			})
			switch {
			case resp.StatusCode >= 500:
				entry.Error("Request completed with server error")
			case resp.StatusCode >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Info("Request completed successfully")
			}
			return resp, nil
		})
	}
}

// RateLimit blocks each request until the limiter admits it or the request
// context ends.
func RateLimit(limiter *rate.Limiter) Transport {
	if limiter == nil {
		return nil
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}

// NewLimiter builds a token bucket admitting burst requests per interval.
// A non-positive burst disables limiting.
func NewLimiter(burst int, interval time.Duration) *rate.Limiter {
	if burst <= 0 || interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)
}

// Recovery turns a panic further down the chain into a request error.
func Recovery(logger *logrus.Logger) Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (resp *http.Response, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithFields(logrus.Fields{
						"error": rec,
						"stack": string(debug.Stack()),
						"url":   req.URL.String(),
					}).Error("Panic recovered in transport")
					resp = nil
					err = fmt.Errorf("transport panic: %v", rec)
				}
			}()
			return next.RoundTrip(req)
		})
	}
}
