package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCorrelateAssignsIdentifiers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var traceID, requestID string
	engine := gin.New()
	engine.Use(Correlate())
	engine.GET("/", func(c *gin.Context) {
		traceID = GetTraceID(c)
		requestID = GetRequestContext(c).RequestID
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if traceID == "" || requestID == "" {
		t.Fatalf("identifiers not assigned: trace=%q request=%q", traceID, requestID)
	}
	if got := rec.Header().Get(TraceIDHeader); got != traceID {
		t.Fatalf("trace header %q does not match context %q", got, traceID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != requestID {
		t.Fatalf("request header %q does not match context %q", got, requestID)
	}
}

func TestCorrelateReusesInboundIdentifiers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Correlate())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-from-caller")
	req.Header.Set(RequestIDHeader, "request-from-caller")
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get(TraceIDHeader); got != "trace-from-caller" {
		t.Fatalf("inbound trace id not reused, got %q", got)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "request-from-caller" {
		t.Fatalf("inbound request id not reused, got %q", got)
	}
}

func TestGetRequestContextWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetRequestContext(c) == nil {
		t.Fatal("GetRequestContext must never return nil")
	}
	if GetTraceID(c) != "" {
		t.Fatal("trace id without middleware must be empty")
	}
}
