package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemSource serves a fixed set of orders, sorted the way the remote script
// sorts them.
type MemSource struct {
	mu     sync.RWMutex
	orders []Order
}

func NewMemSource(orders ...Order) *MemSource {
	return &MemSource{orders: orders}
}

func (s *MemSource) Ping(ctx context.Context) error { return nil }

func (s *MemSource) List(ctx context.Context, by Sort) (Listing, error) {
	s.mu.RLock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	s.mu.RUnlock()

	key := sortKey(by.By)
	sort.SliceStable(out, func(i, j int) bool {
		if by.Order == Asc {
			return key(out[i]) < key(out[j])
		}
		return key(out[i]) > key(out[j])
	})
	return Listing{Total: int64(len(out)), Orders: out}, nil
}

func sortKey(col string) func(Order) string {
	switch col {
	case "numero_pedido":
		return func(o Order) string { return o.Number }
	case "cliente_nombre":
		return func(o Order) string { return o.CustomerName }
	case "estado":
		return func(o Order) string { return string(o.Status) }
	case "idpedido":
		return func(o Order) string { return fmt.Sprintf("%020d", o.ID) }
	default:
		return func(o Order) string { return o.PlacedAt }
	}
}

// DemoOrders is a small order history covering every status, for the
// offline demo mode.
func DemoOrders() []Order {
	return []Order{
		{ID: 1, Number: "PED-0001", CustomerName: "Ana Torres", CustomerEmail: "ana@example.com",
			CustomerPhone: "987654321", CustomerCity: "Lima", PlacedAt: "2025-01-05 10:12:00",
			Status: StatusDelivered, PaymentMethod: "tarjeta",
			Lines: []Line{
				{ProductID: 101, Product: "iPhone 15 Pro Max", Price: 1299, Quantity: 1},
				{ProductID: 203, Product: "Galaxy A54", Price: 449, Quantity: 1},
			}},
		{ID: 2, Number: "PED-0002", CustomerName: "Luis Ramos", CustomerEmail: "luis@example.com",
			CustomerPhone: "912345678", CustomerCity: "Arequipa", PlacedAt: "2025-01-12 16:40:00",
			Status: StatusShipped, PaymentMethod: "yape",
			Lines: []Line{{ProductID: 302, Product: "Redmi Note 13 Pro", Price: 299, Quantity: 2}}},
		{ID: 3, Number: "PED-0003", CustomerName: "María Quispe", CustomerEmail: "maria@example.com",
			CustomerPhone: "956781234", CustomerCity: "Cusco", PlacedAt: "2025-02-02 09:05:00",
			Status: StatusProcessing, PaymentMethod: "transferencia",
			Lines: []Line{{ProductID: 201, Product: "Galaxy S24 Ultra", Price: 1199, Quantity: 1}}},
		{ID: 4, Number: "PED-0004", CustomerName: "Jorge Díaz", CustomerEmail: "jorge@example.com",
			CustomerPhone: "934567812", CustomerCity: "Trujillo", PlacedAt: "2025-02-18 19:22:00",
			Status: StatusPending, PaymentMethod: "efectivo",
			Lines: []Line{
				{ProductID: 303, Product: "POCO X6 Pro", Price: 349, Quantity: 1},
				{ProductID: 102, Product: "iPhone 15 Pro", Price: 1099, Quantity: 1},
			}},
		{ID: 5, Number: "PED-0005", CustomerName: "Rosa Vega", CustomerEmail: "rosa@example.com",
			CustomerPhone: "923456781", CustomerCity: "Piura", PlacedAt: "2025-03-01 11:30:00",
			Status: StatusCancelled, PaymentMethod: "tarjeta",
			Lines: []Line{{ProductID: 301, Product: "Xiaomi 14 Ultra", Price: 899, Quantity: 1}}},
	}
}
