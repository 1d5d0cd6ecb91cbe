package catalog

import (
	"context"
	"sort"
	"sync"
)

// featuredPrice marks the flagship demo phones as featured.
const featuredPrice = 1000

// MemStore serves a fixed catalog. It backs the offline demo mode and tests.
type MemStore struct {
	mu         sync.RWMutex
	products   map[int64]Product
	categories map[int64]Category
	showcase   []ShowcaseItem
}

func NewMemStore() *MemStore {
	s := &MemStore{
		products:   map[int64]Product{},
		categories: map[int64]Category{},
	}

	for _, c := range []Category{
		{ID: 1, Code: "CAT-001", Name: "iPhone", Status: "activo"},
		{ID: 2, Code: "CAT-002", Name: "Samsung Galaxy", Status: "activo"},
		{ID: 3, Code: "CAT-003", Name: "Xiaomi", Status: "activo"},
	} {
		s.categories[c.ID] = c
	}

	for _, p := range []Product{
		{ID: 101, Name: "iPhone 15 Pro Max", Category: "iPhone", Price: 1299, Stock: 12},
		{ID: 102, Name: "iPhone 15 Pro", Category: "iPhone", Price: 1099, Stock: 8},
		{ID: 103, Name: "iPhone 14", Category: "iPhone", Price: 799, Stock: 0},
		{ID: 201, Name: "Galaxy S24 Ultra", Category: "Samsung Galaxy", Price: 1199, Stock: 6},
		{ID: 202, Name: "Galaxy S24+", Category: "Samsung Galaxy", Price: 999, Stock: 10},
		{ID: 203, Name: "Galaxy A54", Category: "Samsung Galaxy", Price: 449, Stock: 25},
		{ID: 301, Name: "Xiaomi 14 Ultra", Category: "Xiaomi", Price: 899, Stock: 4},
		{ID: 302, Name: "Redmi Note 13 Pro", Category: "Xiaomi", Price: 299, Stock: 30},
		{ID: 303, Name: "POCO X6 Pro", Category: "Xiaomi", Price: 349, Stock: 15},
	} {
		p.Image = PlaceholderImage
		p.Status = "activo"
		s.products[p.ID] = p
	}

	for _, c := range s.categories {
		c.ProductCount = int64(len(FilterByCategory(s.sortedProducts(), c.Name)))
		s.categories[c.ID] = c
	}

	for _, p := range s.sortedProducts() {
		s.showcase = append(s.showcase, ShowcaseItem{
			ID:            p.ID,
			Title:         p.Name,
			Image:         p.Image,
			Price:         p.Price,
			OriginalPrice: p.Price * listPriceMarkup,
			Category:      defaultShowcaseCategory,
			Brand:         p.Category,
			InStock:       p.InStock(),
			Featured:      p.Price >= featuredPrice,
			Features:      append([]string(nil), defaultFeatures...),
		})
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Products(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedProducts(), nil
}

func (s *MemStore) Categories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Showcase(ctx context.Context) ([]ShowcaseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ShowcaseItem, len(s.showcase))
	copy(out, s.showcase)
	return out, nil
}

func (s *MemStore) sortedProducts() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
