package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/httpx"
	"github.com/TwigBush/opa-authz/internal/trace"
	"github.com/TwigBush/opa-authz/internal/types"
)

// CheckRequest is the body of POST /v1/checks/{operation} and
// POST /v1/filters/{operation}.
type CheckRequest struct {
	Context    types.SecurityContext `json:"context"`
	Args       enforce.Args          `json:"args"`
	Candidates json.RawMessage       `json:"candidates,omitempty"`
}

type FilterResponse struct {
	Allowed any `json:"allowed"`
}

type Checks struct {
	Dispatcher *enforce.Dispatcher
	Log        *slog.Logger
}

func NewChecks(d *enforce.Dispatcher, log *slog.Logger) *Checks {
	if log == nil {
		log = slog.Default()
	}
	return &Checks{Dispatcher: d, Log: log}
}

func (h *Checks) decode(w http.ResponseWriter, r *http.Request) (authz.Operation, CheckRequest, bool) {
	op := authz.Operation(chi.URLParam(r, "operation"))
	var req CheckRequest
	if !op.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "unknown operation "+string(op))
		return op, req, false
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return op, req, false
	}
	if req.Context.Identity.User == "" {
		httpx.WriteError(w, http.StatusBadRequest, "context.identity.user is required")
		return op, req, false
	}
	return op, req, true
}

// Check answers 204 when the action is permitted, 403 with the denial
// message when it is refused and 502 when no decision could be made.
func (h *Checks) Check(w http.ResponseWriter, r *http.Request) {
	op, req, ok := h.decode(w, r)
	if !ok {
		return
	}
	err := h.Dispatcher.Check(r.Context(), op, req.Context, req.Args)
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeErr(w, r, err)
}

func (h *Checks) Filter(w http.ResponseWriter, r *http.Request) {
	op, req, ok := h.decode(w, r)
	if !ok {
		return
	}
	allowed, err := h.Dispatcher.Filter(r.Context(), op, req.Context, req.Args, req.Candidates)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, FilterResponse{Allowed: allowed})
}

func (h *Checks) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var denied *enforce.AccessDeniedError
	var failed *enforce.DecisionError
	switch {
	case errors.As(err, &denied):
		httpx.WriteError(w, http.StatusForbidden, denied.Error())
	case errors.As(err, &failed):
		h.Log.ErrorContext(r.Context(), "decision_unavailable", "trace", trace.From(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusBadGateway, httpx.SafeErrMsg(err))
	case errors.Is(err, enforce.ErrUnknownOperation), errors.Is(err, enforce.ErrInvalidArgs):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, httpx.SafeErrMsg(err))
	}
}
