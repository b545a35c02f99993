package app

import (
	"context"
	"fmt"
	"io"

	"BakeryStore/config"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/internal/repo/memory"
	order_repo "BakeryStore/internal/repo/order"
	"BakeryStore/internal/repo/order_eventsink"
	product_repo "BakeryStore/internal/repo/product"
	"BakeryStore/pkg/health"
	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/postgres"
)

// storage holds the repositories of the selected backend.
// Users and carts always live in the memory store.
type storage struct {
	store    *memory.Store
	pg       *postgres.Postgres
	orders   order.OrderRepo
	events   order.EventSink
	products catalog.ProductRepo
	users    user.UserRepo
	carts    cart.CartRepo
	checkers []health.Checker
	redis    io.Closer
}

func (s *storage) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pg != nil {
		s.pg.Close()
	}
}

func openStorage(ctx context.Context, cfg config.Config, l *logger.Logger, seed memory.Seed) (*storage, error) {
	store := memory.NewStore(seed.State())
	s := &storage{
		store: store,
		users: memory.NewUserRepo(store),
		carts: memory.NewCartRepo(store),
	}

	if cfg.StoreBackend == config.BackendMemory {
		l.Info("Store backend: memory")
		s.orders = memory.NewOrderRepo(store)
		s.events = memory.NewEventSink(store)
		s.products = memory.NewProductRepo(store)
		return s, nil
	}

	l.Info("Store backend: postgres")
	pg, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s.pg = pg

	if err := ApplyMigrations(ctx, cfg.PgURL, MIGRATION_FS, l); err != nil {
		pg.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	s.orders = order_repo.NewPgOrderRepo(pg)
	s.events = order_eventsink.NewPgOrderEventRepo(pg.Pool, pg.Builder)
	s.products = product_repo.NewPgProductRepo(pg)
	s.checkers = append(s.checkers, health.NewPostgresChecker(pg.Pool))

	if err := seedProducts(ctx, s.products, seed, l); err != nil {
		pg.Close()
		return nil, err
	}
	return s, nil
}

// seedProducts fills an empty catalog table with the seed products.
func seedProducts(ctx context.Context, repo catalog.ProductRepo, seed memory.Seed, l *logger.Logger) error {
	existing, err := repo.GetProducts(ctx, catalog.ProductsQuery{IncludeDeleted: true})
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range seed.Products {
		if err := repo.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	l.Info("Catalog seeded: products=%d", len(seed.Products))
	return nil
}
