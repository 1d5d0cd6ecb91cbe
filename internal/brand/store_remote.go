package brand

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/upstream"
)

const endpoint = "marcas.php"

type RemoteStore struct {
	api *upstream.Client
}

func NewRemoteStore(api *upstream.Client) *RemoteStore {
	return &RemoteStore{api: api}
}

type remoteBrand struct {
	ID                 upstream.Int `json:"id"`
	Nombre             string       `json:"nombre"`
	PaisOrigen         string       `json:"pais_origen"`
	AnioFundacion      upstream.Int `json:"año_fundacion"`
	Descripcion        string       `json:"descripcion"`
	Activo             upstream.Int `json:"activo"`
	FechaCreacion      string       `json:"fecha_creacion"`
	FechaActualizacion string       `json:"fecha_actualizacion"`
}

func (s *RemoteStore) List(ctx context.Context) ([]Brand, error) {
	var rows []remoteBrand
	if err := s.api.Call(ctx, http.MethodGet, endpoint, nil, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]Brand, 0, len(rows))
	for _, r := range rows {
		out = append(out, Brand{
			ID:          int64(r.ID),
			Name:        r.Nombre,
			Country:     r.PaisOrigen,
			FoundedYear: int(r.AnioFundacion),
			Description: r.Descripcion,
			Active:      r.Activo != 0,
			CreatedAt:   r.FechaCreacion,
			UpdatedAt:   r.FechaActualizacion,
		})
	}
	return out, nil
}

func (s *RemoteStore) Create(ctx context.Context, in Valid) error {
	return s.api.Call(ctx, http.MethodPost, endpoint, nil, in, nil)
}

func (s *RemoteStore) Update(ctx context.Context, id int64, in Valid) error {
	return s.api.Call(ctx, http.MethodPut, endpoint, byID(id), in, nil)
}

func (s *RemoteStore) Delete(ctx context.Context, id int64) error {
	return s.api.Call(ctx, http.MethodDelete, endpoint, byID(id), nil, nil)
}

func byID(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}
