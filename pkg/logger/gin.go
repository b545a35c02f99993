package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"time"

	"BakeryStore/pkg/correlation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBody = 8 * 1024 // 8KB

// handoff codes and credentials never reach the logs
var redactPattern = regexp.MustCompile(`("(?:riderProvidedOTP|verification_code|submitted_code|password|token)"\s*:\s*)"[^"]*"`)

func limit(b []byte) []byte {
	if len(b) > maxBody {
		return b[:maxBody]
	}
	return b
}

func redact(b []byte) []byte {
	return redactPattern.ReplaceAll(b, []byte(`$1"***"`))
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CorrelationMiddleware tags the request context and response with a correlation id.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := correlation.Accept(c.GetHeader(correlation.HeaderName))
		c.Request = c.Request.WithContext(correlation.WithID(c.Request.Context(), id))
		c.Header(correlation.HeaderName, id)
		c.Next()
	}
}

// probe paths are polled constantly and carry no order data
func quiet(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}

// GinBodyLogger writes one record per request with redacted bodies. Client errors log at warn, server errors at error.
func (l *Logger) GinBodyLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if quiet(c.Request.URL.Path) {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}
		writer := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = writer
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		var e *zerolog.Event
		switch {
		case status >= 500:
			e = l.logger.Error()
		case status >= 400:
			e = l.logger.Warn()
		default:
			e = l.logger.Info()
		}
		e = e.Ctx(c.Request.Context()).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("took", time.Since(start))
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			e = e.Str("error", errs.String())
		}
		e = addMaybeJSON(e, "request_body", redact(limit(requestBody)))
		e = addMaybeJSON(e, "response_body", redact(limit(writer.body.Bytes())))
		e.Msg("HTTP Request")
	}
}

func addMaybeJSON(e *zerolog.Event, key string, b []byte) *zerolog.Event {
	bb := bytes.TrimSpace(b)
	if len(bb) == 0 {
		return e.RawJSON(key, []byte("null"))
	}
	if json.Valid(bb) {
		return e.RawJSON(key, bb)
	}
	// cut at maxBody or not JSON at all
	return e.Str(key, string(bb))
}
