package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sizeLimit = 240 * 1024 // CloudWatch log size limit
	// request log type
	requestType = "request"

	truncated = "TRUNCATED..."
)

// RequestIDKey is the gin context key holding the id of the current request.
const RequestIDKey = "request_id"

// MaxBodyBytes caps how much of an inbound body is read, here and by the handlers.
const MaxBodyBytes = 1 << 20

// redactedBodyFields are top-level JSON fields masked in the logged request body.
// An interaction token is a callback credential.
var redactedBodyFields = []string{"token"}

// redactedHeaders are never written to the request log.
var redactedHeaders = map[string]bool{
	"authorization":         true,
	"x-signature-ed25519":   true,
	"x-signature-timestamp": true,
}

// requestLog collects what is known about one inbound request.
type requestLog struct {
	RequestID    string
	Started      time.Time
	Method       string
	Path         string
	Status       int
	RequestBody  string
	ResponseBody string
	Headers      map[string]string
	Stack        string
}

func (r *requestLog) fields() []zap.Field {
	return []zap.Field{
		zap.String("type", requestType),
		zap.String("request_id", r.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", r.Status),
		zap.Int64("duration_ms", time.Since(r.Started).Milliseconds()),
		zap.Any("headers", r.Headers),
		zap.String("request_body", r.RequestBody),
		zap.String("response_body", r.ResponseBody),
	}
}

// truncate shortens the bodies, then the stack, until the record fits the size limit.
func (r *requestLog) truncate() {
	size := func() int {
		return len(r.RequestBody) + len(r.ResponseBody) + len(r.Stack)
	}
	if size() < sizeLimit {
		return
	}
	r.ResponseBody = truncated
	if size() < sizeLimit {
		return
	}
	r.RequestBody = truncated
	if size() < sizeLimit {
		return
	}
	r.Stack = truncated
}

// GinLogMiddleware writes one structured log line per request, even when a later handler panics.
func GinLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		record := newRequestLog(c)
		c.Set(RequestIDKey, record.RequestID)

		respWriter := &respLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = respWriter

		defer func() {
			if r := recover(); r != nil {
				record.Status = http.StatusInternalServerError
				record.Stack = string(debug.Stack())
				record.truncate()
				GetLogger().Error("request panicked", append(record.fields(), zap.String("stack", record.Stack))...)
				panic(r)
			}
		}()

		c.Next()

		record.Status = c.Writer.Status()
		record.ResponseBody = respWriter.body.String()
		record.truncate()
		GetLogger().Info("request", record.fields()...)
	}
}

type respLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w respLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w respLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func newRequestLog(c *gin.Context) *requestLog {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes))
		if err != nil {
			GetLogger().Warn("failed to read request body for logging", zap.Error(err))
		}
		// reattach request body for later use
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	return &requestLog{
		RequestID:   requestID(c),
		Started:     time.Now(),
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		RequestBody: redactBody(body),
		Headers:     redact(c.Request.Header),
	}
}

// requestID prefers the Lambda request id so log lines can be joined with the platform logs.
func requestID(c *gin.Context) string {
	if lc, ok := lambdacontext.FromContext(c.Request.Context()); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

func redact(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		if redactedHeaders[strings.ToLower(name)] {
			out[name] = "[redacted]"
			continue
		}
		out[name] = strings.Join(values, ",")
	}
	return out
}

func redactBody(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return string(body)
	}

	found := false
	for _, name := range redactedBodyFields {
		if _, ok := fields[name]; ok {
			fields[name] = json.RawMessage(`"[redacted]"`)
			found = true
		}
	}
	if !found {
		return string(body)
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return string(body)
	}
	return string(out)
}
