package catalog

import (
	"context"
	"net/http"
	"path"
	"strings"

	"storefront/internal/upstream"
)

const (
	productsEndpoint   = "productos.php"
	categoriesEndpoint = "categorias.php"
	showcaseEndpoint   = "imagenes.php"
)

// RemoteStore reads the catalog from the remote storefront API.
type RemoteStore struct {
	api        *upstream.Client
	imagesBase string
}

func NewRemoteStore(api *upstream.Client, imagesBase string) *RemoteStore {
	return &RemoteStore{api: api, imagesBase: imagesBase}
}

type remoteProduct struct {
	ID        upstream.Int    `json:"id"`
	Codigo    string          `json:"codigo"`
	Nombre    string          `json:"nombre"`
	Categoria string          `json:"categoria"`
	Precio    upstream.Amount `json:"precio"`
	Stock     upstream.Int    `json:"stock"`
	Estado    string          `json:"estado"`
	Imagen    string          `json:"imagen"`
}

type remoteCategory struct {
	ID            upstream.Int `json:"id"`
	Codigo        string       `json:"codigo"`
	Nombre        string       `json:"nombre"`
	Descripcion   string       `json:"descripcion"`
	Productos     upstream.Int `json:"productos"`
	Estado        string       `json:"estado"`
	FechaCreacion string       `json:"fechaCreacion"`
}

type remoteShowcase struct {
	ID        upstream.Int    `json:"id"`
	Title     string          `json:"title"`
	Titulo    string          `json:"titulo"`
	Image     string          `json:"image"`
	Precio    upstream.Amount `json:"precio"`
	Categoria string          `json:"categoria"`
	Marca     string          `json:"marca"`
	Destacado bool            `json:"destacado"`
	Features  []string        `json:"features"`
}

func (s *RemoteStore) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, categoriesEndpoint)
}

func (s *RemoteStore) Products(ctx context.Context) ([]Product, error) {
	var rows []remoteProduct
	if err := s.api.Call(ctx, http.MethodGet, productsEndpoint, nil, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, Product{
			ID:       int64(r.ID),
			Code:     r.Codigo,
			Name:     r.Nombre,
			Category: r.Categoria,
			Price:    r.Precio.Float(),
			Stock:    int64(r.Stock),
			Status:   r.Estado,
			Image:    imageURL(s.imagesBase, r.Imagen),
		})
	}
	return out, nil
}

func (s *RemoteStore) Categories(ctx context.Context) ([]Category, error) {
	var rows []remoteCategory
	if err := s.api.Call(ctx, http.MethodGet, categoriesEndpoint, nil, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, Category{
			ID:           int64(r.ID),
			Code:         r.Codigo,
			Name:         r.Nombre,
			Description:  r.Descripcion,
			ProductCount: int64(r.Productos),
			Status:       r.Estado,
			CreatedAt:    r.FechaCreacion,
		})
	}
	return out, nil
}

func (s *RemoteStore) Showcase(ctx context.Context) ([]ShowcaseItem, error) {
	var rows []remoteShowcase
	if err := s.api.Call(ctx, http.MethodGet, showcaseEndpoint, nil, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]ShowcaseItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, toShowcase(r, s.imagesBase))
	}
	return out, nil
}

func toShowcase(r remoteShowcase, imagesBase string) ShowcaseItem {
	it := ShowcaseItem{
		ID:            int64(r.ID),
		Title:         firstNonEmpty(r.Title, r.Titulo),
		Price:         r.Precio.Float(),
		OriginalPrice: r.Precio.Float() * listPriceMarkup,
		Category:      firstNonEmpty(r.Categoria, defaultShowcaseCategory),
		Brand:         firstNonEmpty(r.Marca, defaultShowcaseBrand),
		InStock:       true,
		Featured:      r.Destacado,
		Features:      r.Features,
	}

	if img := strings.TrimSpace(r.Image); img != "" {
		it.Image = imageURL(imagesBase, path.Base(img))
	} else {
		it.Image = PlaceholderImage
	}
	if len(it.Features) == 0 {
		it.Features = append([]string(nil), defaultFeatures...)
	}
	return it
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
