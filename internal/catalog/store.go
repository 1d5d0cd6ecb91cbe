package catalog

import "context"

// Store is the read side of the catalog.
type Store interface {
	Ping(ctx context.Context) error
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Showcase(ctx context.Context) ([]ShowcaseItem, error)
}
