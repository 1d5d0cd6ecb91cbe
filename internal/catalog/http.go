package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/upstream"
	"storefront/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

type categoryPage struct {
	Category Category  `json:"category"`
	Products []Product `json:"products"`
}

// Mount registers the catalog routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Get("/categories", s.listCategories)
	r.Get("/categories/{id}/products", s.categoryProducts)
	r.Get("/showcase", s.showcase)
	r.Get("/showcase/facets", s.showcaseFacets)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.Products(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "list products", err)
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		products = FilterByCategory(products, cat)
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	products, err := s.Store.Products(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "get product", err)
		return
	}
	for _, p := range products {
		if p.ID == id {
			kit.WriteJSON(w, http.StatusOK, p)
			return
		}
	}
	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Store.Categories(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "list categories", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, cats)
}

func (s *Server) categoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	page, found, err := s.loadCategoryPage(r.Context(), id)
	if err != nil {
		upstream.WriteError(w, r, s.Log, "category products", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, page)
}

// loadCategoryPage fetches categories and products concurrently.
func (s *Server) loadCategoryPage(ctx context.Context, id int64) (categoryPage, bool, error) {
	var (
		cats     []Category
		products []Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cats, err = s.Store.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.Store.Products(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return categoryPage{}, false, err
	}

	for _, c := range cats {
		if c.ID == id {
			return categoryPage{Category: c, Products: FilterByCategory(products, c.Name)}, true, nil
		}
	}
	return categoryPage{}, false, nil
}

func (s *Server) showcase(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ShowcaseFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
	}
	if raw := q.Get("featured"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "bad featured", map[string]any{"featured": raw})
			return
		}
		f.FeaturedOnly = b
	}

	items, err := s.Store.Showcase(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "showcase", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, FilterShowcase(items, f))
}

func (s *Server) showcaseFacets(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.Showcase(r.Context())
	if err != nil {
		upstream.WriteError(w, r, s.Log, "showcase facets", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, Facets(items))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
