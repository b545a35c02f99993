//go:build integration
// +build integration

package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/repo/memory"
	"BakeryStore/internal/testinfra"
	"BakeryStore/pkg/logger"
)

func TestRedisStore_RealRedis(t *testing.T) {
	ctx := context.Background()
	suite, err := testinfra.NewTestSuite(ctx, testinfra.SuiteOptions{Redis: true})
	require.NoError(t, err)
	t.Cleanup(func() { suite.Cleanup(ctx) })

	client, err := Connect(ctx, suite.Redis.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	t.Run("writer persists committed states", func(t *testing.T) {
		// given
		rs := NewRedisStore(client, "it:")
		writer := NewWriter(rs, logger.NewNop(), time.Second)
		store := memory.NewStore(sampleState())
		store.OnCommit(writer.Hook)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- writer.Run(runCtx) }()

		// when
		require.NoError(t, memory.NewProductRepo(store).SetStock(ctx, "1", 7))
		cancel()
		require.NoError(t, <-done)

		// then
		st, found, err := rs.Load(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 7, st.Products["1"].Stock)
		assert.Equal(t, order.StatusOutForDelivery, st.Orders["ORD-1"].Status)
		assert.Equal(t, "482913", st.Orders["ORD-1"].VerificationCode)
	})

	t.Run("prefixes keep stores apart", func(t *testing.T) {
		other := NewRedisStore(client, "other:")

		_, found, err := other.Load(ctx)

		require.NoError(t, err)
		assert.False(t, found)
	})
}
