package order

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/upstream"
	"storefront/pkg/kit"
)

type Server struct {
	Source   Source
	Log      *zap.Logger
	PageSize int
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/orders", s.list)
	r.Get("/orders/{id}", s.get)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad page", map[string]any{"page": raw})
			return
		}
		page = n
	}

	listing, err := s.Source.List(r.Context(), ParseSort(q.Get("sort_by"), q.Get("sort_order")))
	if err != nil {
		upstream.WriteError(w, r, s.Log, "list orders", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, Paginate(listing.Orders, listing.Total, page, s.PageSize))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return
	}

	listing, err := s.Source.List(r.Context(), ParseSort("", ""))
	if err != nil {
		upstream.WriteError(w, r, s.Log, "get order", err)
		return
	}

	for _, o := range listing.Orders {
		if o.ID == id {
			kit.WriteJSON(w, http.StatusOK, NewDetail(o))
			return
		}
	}
	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
}
