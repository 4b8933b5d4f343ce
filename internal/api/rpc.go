package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"support-chat/internal/auth"
	"support-chat/internal/logger"
	"support-chat/internal/repository/db"
	conversationService "support-chat/internal/service/conversation"
	"support-chat/pkg/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Kind selects the HTTP method a procedure answers to
type Kind int

const (
	Query Kind = iota
	Mutation
)

// Access tells whether a procedure needs an authenticated caller
type Access int

const (
	Public Access = iota
	Protected
)

// maxInputBytes bounds a mutation body
const maxInputBytes = 1 << 20

// Handler runs a procedure and returns the value placed under result.data
type Handler func(c *Call) (any, error)

// Procedure is one entry of the procedure table
type Procedure struct {
	Name    string
	Kind    Kind
	Access  Access
	Handler Handler
}

// Call carries one procedure invocation
type Call struct {
	Writer  http.ResponseWriter
	Request *http.Request
	// User is the authenticated caller; always set for Protected procedures
	User *db.User

	input     json.RawMessage
	validator *validation.Validator
}

// Context returns the request context
func (c *Call) Context() context.Context {
	return c.Request.Context()
}

// Bind strictly decodes the input into dst and validates its struct tags.
// An absent input decodes as an empty object.
func (c *Call) Bind(dst any) error {
	input := bytes.TrimSpace(c.input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		input = []byte("{}")
	}

	decoder := json.NewDecoder(bytes.NewReader(input))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return validation.NewError("input", fmt.Sprintf("is invalid: %v", err))
	}
	if decoder.More() {
		return validation.NewError("input", "must be a single JSON value")
	}

	return c.validator.Struct(dst)
}

// Error is an RPC failure with its tRPC code and HTTP status
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

type errorBody struct {
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Message    string `json:"message"`
}

type envelope struct {
	Result *resultBody `json:"result,omitempty"`
	Error  *errorBody  `json:"error,omitempty"`
}

type resultBody struct {
	Data any `json:"data"`
}

// ServeProcedure dispatches GET and POST /api/trpc/{procedure}
func (a *API) ServeProcedure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")
	proc, ok := a.procedures[name]
	if !ok {
		a.writeError(w, r, &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: fmt.Sprintf("No procedure found on path %q", name)})
		return
	}

	input, err := readInput(proc.Kind, w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	call := &Call{
		Writer:    w,
		Request:   r,
		User:      auth.UserFromContext(r.Context()),
		input:     input,
		validator: a.validator,
	}

	if proc.Access == Protected {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			a.writeError(w, r, err)
			return
		}
	}

	data, err := proc.Handler(call)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Result: &resultBody{Data: data}})
}

func readInput(kind Kind, w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	switch {
	case kind == Query && r.Method == http.MethodGet:
		return json.RawMessage(r.URL.Query().Get("input")), nil
	case kind == Mutation && r.Method == http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputBytes))
		if err != nil {
			return nil, validation.NewError("input", "could not be read")
		}
		return body, nil
	default:
		return nil, &Error{
			Code:    "METHOD_NOT_SUPPORTED",
			Status:  http.StatusMethodNotAllowed,
			Message: fmt.Sprintf("Unsupported %s request", r.Method),
		}
	}
}

// toError maps service errors onto RPC codes. Unknown errors are logged, never sent.
func toError(err error) *Error {
	var rpcErr *Error
	var vErr *validation.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &vErr):
		return &Error{Code: "BAD_REQUEST", Status: http.StatusBadRequest, Message: vErr.Error()}
	case errors.Is(err, auth.ErrUnauthenticated):
		return &Error{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "Please login"}
	case errors.Is(err, conversationService.ErrConversationNotFound), errors.Is(err, conversationService.ErrMessageNotFound):
		return &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: err.Error()}
	default:
		return &Error{Code: "INTERNAL_SERVER_ERROR", Status: http.StatusInternalServerError, Message: "Internal server error"}
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	rpcErr := toError(err)

	entry := logger.Log.WithFields(logrus.Fields{
		"procedure":  chi.URLParam(r, "procedure"),
		"code":       rpcErr.Code,
		"request_id": middleware.GetReqID(r.Context()),
	})
	if rpcErr.Status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Procedure failed")
	} else {
		entry.WithError(err).Debug("Procedure rejected")
	}

	writeJSON(w, rpcErr.Status, envelope{Error: &errorBody{
		Code:       rpcErr.Code,
		HTTPStatus: rpcErr.Status,
		Message:    rpcErr.Message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Error("Error encoding response")
	}
}
