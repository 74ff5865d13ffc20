package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CacaoStore/internal/session"
	"CacaoStore/pkg/kit"
)

type Server struct {
	Simulator *Simulator
	Log       *zap.Logger

	// Limit, when set, wraps checkout submission.
	Limit func(http.Handler) http.Handler
}

// Routes expects session.Middleware upstream.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) Register(r chi.Router) {
	submit := http.Handler(http.HandlerFunc(s.submit))
	if s.Limit != nil {
		submit = s.Limit(submit)
	}

	r.Method(http.MethodPost, "/checkout", submit)
	r.Get("/checkout/status", s.status)
	r.Get("/orders/{id}", s.get)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}

	var d Details
	if err := kit.DecodeJSON(w, r, &d); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	rc, err := s.Simulator.Submit(r.Context(), sid, d)
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, rc)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]Status{"status": s.Simulator.Status(sid)})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}

	id := chi.URLParam(r, "id")
	rc, found, err := s.Simulator.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("store get receipt failed", zap.Error(err), zap.String("receipt_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	// Receipts of other sessions look exactly like missing ones.
	if !found || rc.SessionID != sid {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, rc)
}

// StatusClientClosedRequest marks submissions abandoned by the client. Nothing
// reads the response, it only keeps disconnects apart from timeouts in logs
// and metrics.
const StatusClientClosedRequest = 499

// StatusFor maps a Submit error to an HTTP status.
func StatusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, status, "invalid details", map[string]any{"fields": ve.Fields})
	case status == StatusClientClosedRequest:
		if s.Log != nil {
			s.Log.Debug("checkout abandoned by client", zap.Error(err))
		}
		w.WriteHeader(status)
	case status == http.StatusGatewayTimeout:
		if s.Log != nil {
			s.Log.Warn("checkout timed out", zap.Error(err))
		}
		kit.WriteError(w, r, status, "timeout", nil)
	case status == http.StatusInternalServerError:
		if s.Log != nil {
			s.Log.Error("checkout failed", zap.Error(err))
		}
		kit.WriteError(w, r, status, "server error", nil)
	default:
		kit.WriteError(w, r, status, err.Error(), nil)
	}
}
