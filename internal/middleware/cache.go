package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/theta-web/internal/config"
    "github.com/iliyamo/theta-web/internal/logger"
)

// captureWriter copies the response body while forwarding it to the client.
// Bytes beyond limit are forwarded but not kept; overflow marks the capture
// as unusable.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cachedResponse is what gets stored in Redis.
type cachedResponse struct {
    Status      int    `json:"s"`
    ContentType string `json:"ct"`
    Body        []byte `json:"b"`
}

// cacheKey hashes the route pattern together with the concrete path and
// query so /api/projects?featured=true and /api/projects differ.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    sum := sha1.Sum([]byte(c.Path() + "|" + r.URL.Path + "?" + r.URL.RawQuery))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

func encodeCached(status int, contentType string, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, ContentType: contentType, Body: body})
}

func decodeCached(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewResponseCache serves GET requests from Redis when a fresh copy exists
// and stores successful responses otherwise.  Redis failures fall through to
// the handler.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logger.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = logger.NewNop()
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if cr, ok := decodeCached(bs); ok {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, cr.ContentType, cr.Body)
                }
            } else if !errors.Is(err, redis.Nil) {
                log.Warn("cache: redis get failed", logger.String("key", key), logger.Error(err))
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }
            payload, err := encodeCached(cw.status, c.Response().Header().Get(echo.HeaderContentType), cw.buf.Bytes())
            if err != nil {
                return nil
            }
            if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err(); err != nil {
                log.Warn("cache: redis set failed", logger.String("key", key), logger.Error(err))
            }
            return nil
        }
    }
}

// PurgeCacheOnWrite drops every cached entry under cfg.Prefix after a
// successful write so the public portfolio never lags an admin edit by
// more than one request.
func PurgeCacheOnWrite(cfg config.CacheConfig, rdb *redis.Client, log logger.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = logger.NewNop()
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err != nil || c.Response().Status >= 300 {
                return err
            }
            ctx := context.WithoutCancel(c.Request().Context())
            iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 100).Iterator()
            var keys []string
            for iter.Next(ctx) {
                keys = append(keys, iter.Val())
            }
            if err := iter.Err(); err != nil {
                log.Warn("cache: scan failed", logger.Error(err))
                return nil
            }
            if len(keys) > 0 {
                if err := rdb.Del(ctx, keys...).Err(); err != nil {
                    log.Warn("cache: purge failed", logger.Int("keys", len(keys)), logger.Error(err))
                }
            }
            return nil
        }
    }
}
