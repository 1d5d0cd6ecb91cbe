package cart

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/pkg/kit"
)

const (
	SessionCookie = "storefront_cart"

	defaultMaxAddQty   = 99
	defaultMaxLineQty  = 999
	cookieMaxAgeSecond = 24 * 60 * 60
)

type ctxKey struct{}

type Server struct {
	Registry *Registry
	Log      *zap.Logger

	// MaxAddQuantity bounds the quantity of a single add request.
	MaxAddQuantity int
	// MaxLineQuantity bounds the quantity a line may reach through add or
	// update.
	MaxLineQuantity int
}

type addReq struct {
	Product
	Quantity *int `json:"quantity,omitempty"`
}

type updateReq struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.session)

	r.Get("/", s.get)
	r.Delete("/", s.clear)
	r.Post("/items", s.add)
	r.Patch("/items/{id}", s.update)
	r.Delete("/items/{id}", s.remove)

	return r
}

// session attaches the caller's cart to the request, issuing a new session
// cookie when the caller has none or its session expired.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var st *Store
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			st, _ = s.Registry.Get(c.Value)
		}

		if st == nil {
			id := NewSessionID()
			st = s.Registry.Open(id)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   cookieMaxAgeSecond,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func storeFrom(r *http.Request) *Store {
	return r.Context().Value(ctxKey{}).(*Store)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, storeFrom(r).Snapshot())
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	st.Clear()
	kit.WriteJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteBadJSON(w, r, err)
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if limit := s.maxAdd(); qty < 1 || qty > limit {
		kit.WriteError(w, r, http.StatusBadRequest, "bad quantity", map[string]any{"min": 1, "max": limit})
		return
	}

	st := storeFrom(r)
	if limit := s.maxLine(); st.Quantity(req.ID)+qty > limit {
		kit.WriteError(w, r, http.StatusBadRequest, "line quantity limit", map[string]any{"max": limit})
		return
	}
	for i := 0; i < qty; i++ {
		st.AddItem(req.Product)
	}

	if s.Log != nil {
		s.Log.Debug("cart add", zap.Int64("product_id", req.ID), zap.Int("qty", qty))
	}
	kit.WriteJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteBadJSON(w, r, err)
		return
	}
	if req.Quantity == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "quantity required", nil)
		return
	}
	if limit := s.maxLine(); *req.Quantity > limit {
		kit.WriteError(w, r, http.StatusBadRequest, "bad quantity", map[string]any{"max": limit})
		return
	}

	st := storeFrom(r)
	st.UpdateQuantity(id, *req.Quantity)
	kit.WriteJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	st := storeFrom(r)
	st.RemoveItem(id)
	kit.WriteJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) maxAdd() int {
	if s.MaxAddQuantity > 0 {
		return s.MaxAddQuantity
	}
	return defaultMaxAddQty
}

func (s *Server) maxLine() int {
	if s.MaxLineQuantity > 0 {
		return min(s.MaxLineQuantity, MaxLineQuantity)
	}
	return defaultMaxLineQty
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
