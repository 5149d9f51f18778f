package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hashmine/miner-rewards/internal/platform/web"

	"github.com/pkg/errors"
)

type MockResponseWriter struct {
	header     http.Header
	StatusCode int
	buffer     bytes.Buffer
}

func newMockResponseWriter() *MockResponseWriter {
	return &MockResponseWriter{
		header: http.Header{},
	}
}

func (rw *MockResponseWriter) Header() http.Header {
	return rw.header
}

func (rw *MockResponseWriter) Write(b []byte) (int, error) {
	return rw.buffer.Write(b)
}

func (rw *MockResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
}

// jsonRequest builds a request with a serialized JSON body.
func jsonRequest(t *testing.T, method, url string, data interface{}) *http.Request {
	t.Helper()

	b, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to serialize request data : %s", err)
	}

	request, err := http.NewRequest(method, url, bytes.NewBuffer(b))
	if err != nil {
		t.Fatalf("Failed to create request : %s", err)
	}

	return request
}

// emptyRequest builds a request with no body.
func emptyRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()

	request, err := http.NewRequest(method, url, bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Failed to create request : %s", err)
	}

	return request
}

// requestErrorStatus asserts the error is a request error for the expected
// cause and returns its status.
func requestErrorStatus(t *testing.T, err error, cause error) int {
	t.Helper()

	re, ok := errors.Cause(err).(*web.RequestError)
	if !ok {
		t.Fatalf("Error is not a request error : %v", err)
	}
	if re.Err != cause {
		t.Fatalf("Wrong error cause : got %v, want %v", re.Err, cause)
	}

	return re.Status
}
