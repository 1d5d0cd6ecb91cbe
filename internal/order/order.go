package order

import (
	"context"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusProcessing Status = "procesando"
	StatusShipped    Status = "enviado"
	StatusDelivered  Status = "entregado"
	StatusCancelled  Status = "cancelado"
)

type Line struct {
	ProductID int64   `json:"product_id"`
	Product   string  `json:"product"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

type Order struct {
	ID            int64  `json:"id"`
	Number        string `json:"number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerCity  string `json:"customer_city"`
	PlacedAt      string `json:"placed_at"`
	Status        Status `json:"status"`
	PaymentMethod string `json:"payment_method"`
	Lines         []Line `json:"lines"`
}

// Total is the sum of price times quantity over the order lines.
func (o Order) Total() float64 {
	var t float64
	for _, l := range o.Lines {
		t += l.Price * float64(l.Quantity)
	}
	return t
}

type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"

	DefaultSortBy = "fecha_pedido"
)

var sortColumns = map[string]bool{
	"fecha_pedido":   true,
	"numero_pedido":  true,
	"cliente_nombre": true,
	"estado":         true,
	"idpedido":       true,
}

// Sort is a validated ordering for the remote listing.
type Sort struct {
	By    string
	Order SortOrder
}

// ParseSort falls back to newest first for unknown columns or directions.
func ParseSort(by, order string) Sort {
	s := Sort{By: DefaultSortBy, Order: Desc}
	if sortColumns[by] {
		s.By = by
	}
	if strings.EqualFold(order, string(Asc)) {
		s.Order = Asc
	}
	return s
}

// Listing is the full remote order list.
type Listing struct {
	Total  int64
	Orders []Order
}

type Source interface {
	List(ctx context.Context, s Sort) (Listing, error)
	Ping(ctx context.Context) error
}
