package brand

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/upstream"
	"storefront/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// WriteLimiter throttles create, update and delete per client IP.
	WriteLimiter *kit.IPRateLimiter

	Now func() time.Time
}

func (s *Server) Mount(r chi.Router) {
	r.Route("/brands", func(br chi.Router) {
		br.Get("/", s.list)

		br.Group(func(wr chi.Router) {
			if s.WriteLimiter != nil {
				wr.Use(s.WriteLimiter.Middleware)
			}
			wr.Post("/", s.create)
			wr.Put("/{id}", s.update)
			wr.Delete("/{id}", s.delete)
		})
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	brands, err := s.Store.List(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "list brands", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, Filter(brands, r.URL.Query().Get("q")))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	v, ok := s.decodeValid(w, r)
	if !ok {
		return
	}
	if err := s.Store.Create(r.Context(), v); err != nil {
		upstream.WriteError(w, r, s.Log, "create brand", err)
		return
	}
	s.logWrite("brand created", 0, v)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	v, ok := s.decodeValid(w, r)
	if !ok {
		return
	}
	if err := s.Store.Update(r.Context(), id, v); err != nil {
		upstream.WriteError(w, r, s.Log, "update brand", err)
		return
	}
	s.logWrite("brand updated", id, v)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}
	if err := s.Store.Delete(r.Context(), id); err != nil {
		upstream.WriteError(w, r, s.Log, "delete brand", err)
		return
	}
	if s.Log != nil {
		s.Log.Info("brand deleted", zap.Int64("id", id))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request) (Valid, bool) {
	var in Input
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteBadJSON(w, r, err)
		return Valid{}, false
	}

	v, err := Validate(in, s.now())
	var fe FieldErrors
	if errors.As(err, &fe) {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid brand", fe)
		return Valid{}, false
	}
	return v, true
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) logWrite(msg string, id int64, v Valid) {
	if s.Log == nil {
		return
	}
	s.Log.Info(msg, zap.Int64("id", id), zap.String("name", v.Name))
}

func brandID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
