package middleware

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theta-web/internal/logger"
)

type entry struct {
    level  string
    msg    string
    fields map[string]any
}

// recordingLogger keeps every entry in memory.
type recordingLogger struct {
    mu      sync.Mutex
    entries []entry
}

func (l *recordingLogger) add(level, msg string, fields []logger.Field) {
    m := map[string]any{}
    for _, f := range fields {
        switch {
        case f.String != "":
            m[f.Key] = f.String
        case f.Interface != nil:
            m[f.Key] = f.Interface
        default:
            m[f.Key] = f.Integer
        }
    }
    l.mu.Lock()
    defer l.mu.Unlock()
    l.entries = append(l.entries, entry{level, msg, m})
}

func (l *recordingLogger) Debug(msg string, f ...logger.Field) { l.add("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f ...logger.Field)  { l.add("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f ...logger.Field)  { l.add("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f ...logger.Field) { l.add("error", msg, f) }
func (l *recordingLogger) With(...logger.Field) logger.Logger  { return l }
func (l *recordingLogger) Sync() error                         { return nil }

type httpRecord struct {
    method, route string
    status        int
}

type recordingMetrics struct {
    mu   sync.Mutex
    reqs []httpRecord
}

func (m *recordingMetrics) RecordInquiry(string)                {}
func (m *recordingMetrics) RecordUpload(string, string)         {}
func (m *recordingMetrics) RecordLogin(string)                  {}
func (m *recordingMetrics) RecordNotificationFailure(string)    {}
func (m *recordingMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.reqs = append(m.reqs, httpRecord{method, route, status})
}

func TestRequestLogger(t *testing.T) {
    log := &recordingLogger{}
    rec := &recordingMetrics{}
    e := echo.New()
    e.Use(RequestLogger(log, rec))
    e.GET("/api/projects/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
    e.GET("/boom", func(c echo.Context) error { return errors.New("kaput") })
    e.GET("/missing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })

    for _, p := range []string{"/api/projects/7", "/boom", "/missing"} {
        e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
    }

    require.Len(t, log.entries, 3)
    assert.Equal(t, "info", log.entries[0].level)
    assert.Equal(t, "/api/projects/7", log.entries[0].fields["path"])
    assert.Equal(t, "error", log.entries[1].level)
    assert.Equal(t, "warn", log.entries[2].level)

    require.Len(t, rec.reqs, 3)
    assert.Equal(t, httpRecord{"GET", "/api/projects/:id", 200}, rec.reqs[0])
    assert.Equal(t, 500, rec.reqs[1].status)
    assert.Equal(t, 404, rec.reqs[2].status)
}
