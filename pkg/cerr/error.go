package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/taskflowhq/taskflow/pkg/clog"
)

// Error carries a transport-mappable code, a message safe to return to the
// caller, and the underlying error for logs. Fields holds per-field messages
// for validation failures and is rendered in the response body when set.
type Error struct {
	Code   Code
	Msg    string
	Err    error
	Stack  string
	Fields map[string]string
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.HTTPStatusToLevel(code.HTTPCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

// NewValidationError builds a field-scoped validation error. The response is
// rendered as {"success":false,"errors":{field:message}} with status 400.
func NewValidationError(fields map[string]string) *Error {
	err := NewError(InvalidArgument, "validation failed", nil)
	err.Fields = fields
	return err
}

// NewFieldError is shorthand for a single-field validation error.
func NewFieldError(field, msg string) *Error {
	return NewValidationError(map[string]string{field: msg})
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type validationBody struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors"`
}

// ExtractToHTTPResponse writes the response or error collected on the request
// context during handler execution.
func ExtractToHTTPResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.err == nil {
		writeJSON(ctx, rw, rr.status, rr.response)
		return
	}
	if errors.Is(rr.err, context.Canceled) {
		writeJSONError(ctx, rw, NewError(Canceled, "connection closed", rr.err))
		return
	}

	clog.AddError(ctx, rr.err)
	var cErr *Error
	if errors.As(rr.err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		writeJSONError(ctx, rw, cErr)
		return
	}
	writeJSONError(ctx, rw, NewError(Unknown, "unknown error", rr.err))
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, response any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	var body any
	if len(origErr.Fields) > 0 {
		body = validationBody{Success: false, Errors: origErr.Fields}
	} else {
		body = errorBody{OK: false, Code: origErr.Code.String(), Error: origErr.Msg}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(body); err != nil {
		buf = bytes.NewBufferString(`{"ok":false,"code":"internal","error":"server error"}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(buf.Bytes()); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}
