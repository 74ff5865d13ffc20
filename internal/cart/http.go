package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CacaoStore/internal/session"
	"CacaoStore/pkg/kit"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

type addReq struct {
	ProductID int `json:"product_id"`
}

type updateReq struct {
	Delta int `json:"delta"`
}

// Routes expects session.Middleware upstream.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.get)
	r.Delete("/", s.clear)
	r.Post("/items", s.add)
	r.Patch("/items/{id}", s.update)
	r.Delete("/items/{id}", s.remove)

	return r
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}
	s.respond(w, r, "get cart")(s.Service.Get(r.Context(), sid))
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}

	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	s.respond(w, r, "add to cart")(s.Service.Add(r.Context(), sid, req.ProductID))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	s.respond(w, r, "update quantity")(s.Service.UpdateQuantity(r.Context(), sid, id, req.Delta))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", nil)
		return
	}

	s.respond(w, r, "remove from cart")(s.Service.Remove(r.Context(), sid, id))
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
		return
	}
	s.respond(w, r, "clear cart")(s.Service.Clear(r.Context(), sid))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, what string) func(Cart, error) {
	return func(c Cart, err error) {
		switch {
		case err == nil:
			kit.WriteJSON(w, http.StatusOK, c.Summary())
		case errors.Is(err, ErrUnknownProduct):
			kit.WriteError(w, r, http.StatusNotFound, "unknown product", nil)
		default:
			if s.Log != nil {
				s.Log.Error(what+" failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		}
	}
}
