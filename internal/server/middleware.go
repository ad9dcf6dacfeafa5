package server

import (
	"runtime/debug"
	"time"

	"github.com/Brownie44l1/fileserver/internal/response"
)

// Handler serves the single exchange on a connection.
type Handler interface {
	ServeHTTP(ctx *Context)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx *Context)

func (f HandlerFunc) ServeHTTP(ctx *Context) {
	f(ctx)
}

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// chain applies middlewares so that the first one is outermost.
func chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// LoggingMiddleware logs every answered request with the peer address and
// the status line. A response that failed part way is logged as aborted.
// Connections closed without a response are logged at debug level.
func LoggingMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) {
			next.ServeHTTP(ctx)

			if ctx.Abandoned || !ctx.Response.Started() {
				fields := []Field{
					{"remote_ip", ctx.RemoteIP},
					{"remote_port", ctx.RemotePort},
				}
				if ctx.Err != nil {
					fields = append(fields, Field{"error", ctx.Err})
				}
				logger.Debug("connection closed without response", fields...)
				return
			}

			fields := []Field{
				{"remote_ip", ctx.RemoteIP},
				{"remote_port", ctx.RemotePort},
				{"request", ctx.RequestLine()},
				{"status", ctx.StatusLine()},
				{"bytes", ctx.Response.BodyBytes()},
				{"duration_ms", time.Since(ctx.Start).Milliseconds()},
			}
			if ctx.Request != nil {
				fields = append(fields, Field{"version", ctx.Request.Version})
			}
			if ctx.Err != nil || ctx.Response.HadError() {
				if ctx.Err != nil {
					fields = append(fields, Field{"error", ctx.Err})
				}
				logger.Warn("request aborted", fields...)
				return
			}
			logger.Info("request handled", fields...)
		})
	}
}

// RecoveryMiddleware recovers from panics. A 500 page is sent only if no
// part of a response went out yet.
func RecoveryMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						Field{"error", err},
						Field{"stack", string(debug.Stack())},
						Field{"remote_ip", ctx.RemoteIP},
						Field{"request", ctx.RequestLine()},
					)

					if !ctx.Response.Started() {
						ctx.Error(response.StatusInternalServerError)
					}
				}
			}()

			next.ServeHTTP(ctx)
		})
	}
}

// MetricsMiddleware records request metrics
func MetricsMiddleware(metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *Context) {
			next.ServeHTTP(ctx)

			if !ctx.Response.Started() {
				return
			}
			metrics.RecordRequest(
				int(ctx.Response.StatusCode()),
				ctx.Response.BodyBytes(),
				time.Since(ctx.Start),
			)
		})
	}
}
