package order

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/upstream"
)

const endpoint = "pedidos.php"

// RemoteSource reads orders from the remote API. Unlike the other scripts
// it answers {total, pedidos} without the success envelope.
type RemoteSource struct {
	api *upstream.Client
}

func NewRemoteSource(api *upstream.Client) *RemoteSource {
	return &RemoteSource{api: api}
}

type remoteLine struct {
	IDProducto upstream.Int    `json:"idproducto"`
	Producto   string          `json:"producto"`
	Precio     upstream.Amount `json:"precio"`
	Cantidad   upstream.Int    `json:"cantidad"`
}

type remoteOrder struct {
	IDPedido        upstream.Int `json:"idpedido"`
	NumeroPedido    string       `json:"numero_pedido"`
	ClienteNombre   string       `json:"cliente_nombre"`
	ClienteEmail    string       `json:"cliente_email"`
	ClienteTelefono string       `json:"cliente_telefono"`
	ClienteCiudad   string       `json:"cliente_ciudad"`
	FechaPedido     string       `json:"fecha_pedido"`
	Estado          string       `json:"estado"`
	MetodoPago      string       `json:"metodo_pago"`
	Detalle         []remoteLine `json:"detalle"`
}

type remoteListing struct {
	Total   upstream.Int  `json:"total"`
	Pedidos []remoteOrder `json:"pedidos"`
	Message string        `json:"message"`
}

func (s *RemoteSource) List(ctx context.Context, sort Sort) (Listing, error) {
	q := url.Values{
		"sort_by":    {sort.By},
		"sort_order": {string(sort.Order)},
	}

	var resp remoteListing
	if err := s.api.Do(ctx, http.MethodGet, endpoint, q, nil, &resp); err != nil {
		return Listing{}, err
	}
	if resp.Pedidos == nil {
		if resp.Message != "" {
			return Listing{}, &upstream.RejectedError{Message: resp.Message}
		}
		return Listing{}, fmt.Errorf("%w: %s: missing pedidos", upstream.ErrBadPayload, endpoint)
	}

	out := Listing{Total: int64(resp.Total), Orders: make([]Order, 0, len(resp.Pedidos))}
	for _, p := range resp.Pedidos {
		out.Orders = append(out.Orders, toOrder(p))
	}
	return out, nil
}

func (s *RemoteSource) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, endpoint)
}

func toOrder(p remoteOrder) Order {
	o := Order{
		ID:            int64(p.IDPedido),
		Number:        p.NumeroPedido,
		CustomerName:  p.ClienteNombre,
		CustomerEmail: p.ClienteEmail,
		CustomerPhone: p.ClienteTelefono,
		CustomerCity:  p.ClienteCiudad,
		PlacedAt:      p.FechaPedido,
		Status:        Status(p.Estado),
		PaymentMethod: p.MetodoPago,
		Lines:         make([]Line, 0, len(p.Detalle)),
	}
	for _, d := range p.Detalle {
		o.Lines = append(o.Lines, Line{
			ProductID: int64(d.IDProducto),
			Product:   d.Producto,
			Price:     d.Precio.Float(),
			Quantity:  int64(d.Cantidad),
		})
	}
	return o
}
