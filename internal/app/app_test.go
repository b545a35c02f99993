package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BakeryStore/config"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/repo/memory"
	"BakeryStore/pkg/logger"
)

func memoryConfig() config.Config {
	return config.Config{StoreBackend: config.BackendMemory, EventsTransport: config.TransportNone, SnapshotPrefix: "bakery:"}
}

func TestSeedProducts(t *testing.T) {
	ctx := context.Background()
	seed, err := memory.LoadSeed("")
	require.NoError(t, err)

	t.Run("should fill an empty catalog", func(t *testing.T) {
		repo := memory.NewProductRepo(memory.NewStore(memory.NewState()))

		require.NoError(t, seedProducts(ctx, repo, seed, logger.NewNop()))

		products, err := repo.GetProducts(ctx, catalog.ProductsQuery{})
		require.NoError(t, err)
		assert.Len(t, products, len(seed.Products))
	})

	t.Run("should leave an existing catalog alone", func(t *testing.T) {
		repo := memory.NewProductRepo(memory.NewStore(memory.NewState()))
		require.NoError(t, repo.CreateProduct(ctx, seed.Products[0]))

		require.NoError(t, seedProducts(ctx, repo, seed, logger.NewNop()))

		products, err := repo.GetProducts(ctx, catalog.ProductsQuery{IncludeDeleted: true})
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}

func TestStartSnapshots(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	seed, err := memory.LoadSeed("")
	require.NoError(t, err)

	// given: a first process saves its seeded state and changes stock
	first, err := openStorage(ctx, cfg, logger.NewNop(), seed)
	require.NoError(t, err)
	writer, checker, err := startSnapshots(ctx, cfg, logger.NewNop(), first)
	require.NoError(t, err)
	assert.Equal(t, "redis", checker.Name())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- writer.Run(runCtx) }()
	require.NoError(t, first.products.SetStock(ctx, "c4", 42))
	cancel()
	require.NoError(t, <-done)
	first.Close()

	// when: a second process starts from the same redis
	second, err := openStorage(ctx, cfg, logger.NewNop(), seed)
	require.NoError(t, err)
	defer second.Close()
	_, _, err = startSnapshots(ctx, cfg, logger.NewNop(), second)
	require.NoError(t, err)

	// then
	products, err := second.products.GetProducts(ctx, catalog.ProductsQuery{IDs: []string{"c4"}})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 42, products[0].Stock)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	err := Migrate(memoryConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND=postgres")
}
