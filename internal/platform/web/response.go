package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tokenized/logger"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	validator "gopkg.in/go-playground/validator.v8"
)

var (
	// ErrNotFound is abstracting the not found error.
	ErrNotFound = errors.New("Entity not found")

	// ErrUnauthorized occurs when the call is not authorized.
	ErrUnauthorized = errors.New("Unauthorized")

	// ErrForbidden occurs when the caller is known but not allowed.
	ErrForbidden = errors.New("Forbidden")
)

// validate provides support for validating request payloads.
var validate = validator.New(&validator.Config{TagName: "validate"})

// Invalid describes a validation error belonging to a specific field.
type Invalid struct {
	Fld string `json:"field_name"`
	Err string `json:"error"`
}

// InvalidError is a custom error type for invalid fields.
type InvalidError []Invalid

// Error implements the error interface for InvalidError.
func (err InvalidError) Error() string {
	var str string
	for _, v := range err {
		str = str + " {" + v.Fld + ":" + v.Err + "} "
	}
	return str
}

// RequestError wraps a provided error with HTTP details that can be used
// later to build and send a proper error response.
type RequestError struct {
	Err    error
	Status int
}

// NewRequestError is used when a request error occurs and we want to
// respond with a specific status code.
func NewRequestError(err error, status int) error {
	return &RequestError{Err: err, Status: status}
}

// Error implements the error interface for RequestError.
func (re *RequestError) Error() string {
	return re.Err.Error()
}

// JSONError is the response for errors that occur within the API.
type JSONError struct {
	Error  string       `json:"error"`
	Fields InvalidError `json:"fields,omitempty"`
}

// Unmarshal decodes the input to the struct type and checks the fields to
// verify the value is in a proper state.
func Unmarshal(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return NewRequestError(err, http.StatusBadRequest)
	}

	var inv InvalidError
	if fve := validate.Struct(v); fve != nil {
		for _, fe := range fve.(validator.ValidationErrors) {
			inv = append(inv, Invalid{Fld: fe.Field, Err: fe.Tag})
		}
		return inv
	}

	return nil
}

// Error handles all error responses for the API. Anything unrecognized is a
// 500 with no internal detail leaked to the caller.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	switch errors.Cause(err) {
	case ErrNotFound:
		RespondError(ctx, w, errors.Cause(err), http.StatusNotFound)
		return
	case ErrUnauthorized:
		RespondError(ctx, w, errors.Cause(err), http.StatusUnauthorized)
		return
	case ErrForbidden:
		RespondError(ctx, w, errors.Cause(err), http.StatusForbidden)
		return
	}

	switch e := errors.Cause(err).(type) {
	case InvalidError:
		v := JSONError{Error: "field validation failure", Fields: e}
		Respond(ctx, w, v, http.StatusBadRequest)
		return
	case *RequestError:
		RespondError(ctx, w, e.Err, e.Status)
		return
	}

	RespondError(ctx, w, errors.New("internal server error"), http.StatusInternalServerError)
}

// RespondError sends JSON describing the error.
func RespondError(ctx context.Context, w http.ResponseWriter, err error, code int) {
	Respond(ctx, w, JSONError{Error: err.Error()}, code)
}

// Respond sends JSON to the client. If data is nil only the status code is
// written.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, code int) {
	ctx, span := trace.StartSpan(ctx, "internal.platform.web.Respond")
	defer span.End()

	// Set the status code for the request logger middleware.
	if v, ok := ctx.Value(KeyValues).(*Values); ok {
		v.StatusCode = code
	}

	if data == nil || code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error(ctx, "Respond Marshal : %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(jsonData); err != nil {
		logger.Error(ctx, "Respond Write : %s", err)
	}
}

// RespondHTML sends a rendered HTML document to the client.
func RespondHTML(ctx context.Context, w http.ResponseWriter, data []byte, code int) {
	if v, ok := ctx.Value(KeyValues).(*Values); ok {
		v.StatusCode = code
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)

	if _, err := w.Write(data); err != nil {
		logger.Error(ctx, "Respond Write : %s", err)
	}
}

// Redirect sends a redirect to the client and records the status code for the
// request logger middleware.
func Redirect(ctx context.Context, w http.ResponseWriter, r *http.Request, url string, code int) {
	if v, ok := ctx.Value(KeyValues).(*Values); ok {
		v.StatusCode = code
	}

	http.Redirect(w, r, url, code)
}
