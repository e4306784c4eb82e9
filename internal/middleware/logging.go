package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theta-web/internal/logger"
    "github.com/iliyamo/theta-web/internal/metrics"
)

// ContextKeyError carries an error a handler already answered, so that the
// request line can still include it.
const ContextKeyError = "request_error"

// RequestLogger logs one structured line per request and records it in
// rec.  The level follows the status: 5xx error, 4xx warn, else info.
func RequestLogger(log logger.Logger, rec metrics.Recorder) echo.MiddlewareFunc {
    if rec == nil {
        rec = metrics.Nop{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Let the error handler write the response so the status is final.
                c.Error(err)
            }
            elapsed := time.Since(start)

            req := c.Request()
            status := c.Response().Status
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            rec.RecordHTTPRequest(req.Method, route, status, elapsed)

            fields := []logger.Field{
                logger.String("method", req.Method),
                logger.String("path", req.URL.Path),
                logger.Int("status", status),
                logger.Duration("duration", elapsed),
                logger.String("ip", c.RealIP()),
            }
            if id := adminIdentity(c); id != "anon" {
                fields = append(fields, logger.String("admin", id))
            }
            if err != nil {
                fields = append(fields, logger.Error(err))
            } else if herr, ok := c.Get(ContextKeyError).(error); ok && herr != nil {
                fields = append(fields, logger.Error(herr))
            }

            switch {
            case status >= 500:
                log.Error("http_request", fields...)
            case status >= 400:
                log.Warn("http_request", fields...)
            default:
                log.Info("http_request", fields...)
            }
            return nil
        }
    }
}
