package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequestID()(c)

	id := GetRequestID(c)
	if id == "" {
		t.Fatal("expected a generated request id")
	}
	if got := w.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("expected header %q, got %q", id, got)
	}
}

func TestRequestIDEchoesClientHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(RequestIDHeader, "client-supplied")

	RequestID()(c)

	if id := GetRequestID(c); id != "client-supplied" {
		t.Fatalf("expected client id preserved, got %q", id)
	}
}
