package server

import (
	"context"
	"errors"
	"net/http"

	errs "github.com/matzehuels/kintree/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError answers with the envelope and the status for err's code.
// A pipeline cut short by the request deadline reports a timeout.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) && errs.GetCode(err) == "" {
		err = errs.Wrap(errs.ErrCodeTimeout, err, "request timed out")
	}
	writeErrorStatus(w, r, errs.StatusCode(err), err)
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	msg := errs.UserMessage(err)
	if status >= http.StatusInternalServerError && code == errs.ErrCodeInternal {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{errorDetail{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func errNotFound(r *http.Request) error {
	return errs.New(errs.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) error {
	return errs.New(errs.ErrCodeUnsupported, "method %s not allowed on %s", r.Method, r.URL.Path)
}
