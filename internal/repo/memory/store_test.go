package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/pointers"
)

func product(id string, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString("4.50"),
		Category: catalog.CategoryPastry,
		Stock:    stock,
		Vendor:   "Chef Pierre",
	}
}

func storeWith(products ...catalog.Product) *Store {
	st := NewState()
	for _, p := range products {
		st.Products[p.ID] = p
	}
	return NewStore(st)
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	p, ok := s.Snapshot().Products[id]
	require.True(t, ok)
	return p.Stock
}

func TestOrderRepo_ReserveStock_NeverOversells(t *testing.T) {
	// given
	store := storeWith(product("croissant", 5))
	repo := NewOrderRepo(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed, rejected := 0, 0

	// when
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.InTransaction(ctx, func(tx order.TxOrderRepo) error {
				if err := tx.ReserveStock(ctx, "croissant", 1); err != nil {
					return err
				}
				return tx.CreateOrder(ctx, order.Order{ID: fmt.Sprintf("ORD-%d", i)})
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				placed++
			} else if errors.Is(err, apperror.ErrCapacity) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	// then
	assert.Equal(t, 5, placed)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, 0, stockOf(t, store, "croissant"))
	assert.Len(t, store.Snapshot().Orders, 5)
}

func TestOrderRepo_InTransaction_RollsBackOnError(t *testing.T) {
	// given
	store := storeWith(product("loaf", 10), product("cake", 1))
	repo := NewOrderRepo(store)
	ctx := context.Background()

	// when
	err := repo.InTransaction(ctx, func(tx order.TxOrderRepo) error {
		if err := tx.ReserveStock(ctx, "loaf", 3); err != nil {
			return err
		}
		if err := tx.ReserveStock(ctx, "cake", 2); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, order.Order{ID: "ORD-1"})
	})

	// then
	ce, ok := catalog.AsCapacityError(err)
	require.True(t, ok)
	assert.Equal(t, 1, ce.Available)
	assert.Equal(t, 2, ce.InBasket)
	assert.Equal(t, 10, stockOf(t, store, "loaf"))
	assert.Equal(t, 1, stockOf(t, store, "cake"))
	assert.Empty(t, store.Snapshot().Orders)
}

func TestOrderRepo_ReserveStock_UnknownOrDeletedProduct(t *testing.T) {
	gone := product("gone", 5)
	gone.Deleted = true
	store := storeWith(gone)
	repo := NewOrderRepo(store)

	for _, id := range []string{"missing", "gone"} {
		t.Run(id, func(t *testing.T) {
			err := repo.ReserveStock(context.Background(), id, 1)
			assert.ErrorIs(t, err, catalog.ErrNotFound)
		})
	}
}

func TestOrderRepo_GetOrderForUpdate_SerializesWriters(t *testing.T) {
	// given
	store := storeWith()
	repo := NewOrderRepo(store)
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, order.Order{ID: "ORD-1", Status: order.StatusPending}))

	// when
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.InTransaction(ctx, func(tx order.TxOrderRepo) error {
				o, err := tx.GetOrderForUpdate(ctx, "ORD-1")
				if err != nil {
					return err
				}
				o.Version++
				return tx.UpdateOrder(ctx, o)
			})
		}()
	}
	wg.Wait()

	// then
	o, err := repo.GetOrderForUpdate(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 50, o.Version)
}

func TestOrderRepo_GetOrderForUpdate_NotFound(t *testing.T) {
	repo := NewOrderRepo(storeWith())

	_, err := repo.GetOrderForUpdate(context.Background(), "ORD-404")

	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepo_GetOrders(t *testing.T) {
	// given
	store := storeWith()
	repo := NewOrderRepo(store)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, o := range []order.Order{
		{ID: "ORD-A", CustomerID: "CST-909", Status: order.StatusPending, DeliveryMethod: order.MethodDelivery},
		{ID: "ORD-B", CustomerID: "CST-909", Status: order.StatusDelivered, DeliveryMethod: order.MethodDelivery},
		{ID: "ORD-C", CustomerID: "CST-777", Status: order.StatusPending, DeliveryMethod: order.MethodPickup},
	} {
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	tests := []struct {
		name  string
		query *order.OrdersQuery
		want  []string
	}{
		{name: "all newest first", query: nil, want: []string{"ORD-C", "ORD-B", "ORD-A"}},
		{
			name:  "by customer",
			query: &order.OrdersQuery{CustomerIDs: []string{"CST-909"}},
			want:  []string{"ORD-B", "ORD-A"},
		},
		{
			name:  "by status ascending",
			query: &order.OrdersQuery{Statuses: []order.Status{order.StatusPending}, SortOrder: pointers.Ptr("asc")},
			want:  []string{"ORD-A", "ORD-C"},
		},
		{
			name:  "second page",
			query: &order.OrdersQuery{Pagination: &order.Pagination{PageSize: 2, PageNumber: 2}},
			want:  []string{"ORD-A"},
		},
		{
			name:  "page past the end",
			query: &order.OrdersQuery{Pagination: &order.Pagination{PageSize: 2, PageNumber: 5}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			orders, err := repo.GetOrders(ctx, tt.query)

			// then
			require.NoError(t, err)
			ids := make([]string, 0, len(orders))
			for _, o := range orders {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestOrderRepo_ReturnedOrdersAreCopies(t *testing.T) {
	store := storeWith()
	repo := NewOrderRepo(store)
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, order.Order{
		ID:    "ORD-1",
		Lines: []order.LineItem{{ProductID: "1", Quantity: 2}},
	}))

	o, err := repo.GetOrderForUpdate(ctx, "ORD-1")
	require.NoError(t, err)
	o.Lines[0].Quantity = 99

	again, err := repo.GetOrderForUpdate(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("set stock", func(t *testing.T) {
		store := storeWith(product("1", 3))
		repo := NewProductRepo(store)

		require.NoError(t, repo.SetStock(ctx, "1", 40))

		assert.Equal(t, 40, stockOf(t, store, "1"))
	})

	t.Run("set stock on unknown product", func(t *testing.T) {
		repo := NewProductRepo(storeWith())

		err := repo.SetStock(ctx, "nope", 1)

		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("deleted products are hidden by default", func(t *testing.T) {
		gone := product("2", 1)
		gone.Deleted = true
		repo := NewProductRepo(storeWith(product("1", 3), gone))

		visible, err := repo.GetProducts(ctx, catalog.ProductsQuery{})
		require.NoError(t, err)
		all, err := repo.GetProducts(ctx, catalog.ProductsQuery{IncludeDeleted: true})
		require.NoError(t, err)

		assert.Len(t, visible, 1)
		assert.Len(t, all, 2)
	})

	t.Run("create rejects duplicate id", func(t *testing.T) {
		repo := NewProductRepo(storeWith(product("1", 3)))

		err := repo.CreateProduct(ctx, product("1", 9))

		assert.Error(t, err)
	})
}

func TestUserRepo_CreateUser_UniqueUsername(t *testing.T) {
	// given
	repo := NewUserRepo(storeWith())
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, user.User{ID: "CST-1", Username: "jane", Role: user.RoleCustomer}))

	// when
	err := repo.CreateUser(ctx, user.User{ID: "CST-2", Username: "jane", Role: user.RoleCustomer})

	// then
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
	u, err := repo.GetUserByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, "CST-1", u.ID)
}

func TestUserRepo_UpdateAndDelete(t *testing.T) {
	// given
	store := storeWith()
	repo := NewUserRepo(store)
	carts := NewCartRepo(store)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, user.User{ID: "USR-9", Username: "rosa", Role: user.RoleDelivery}))
	require.NoError(t, carts.SaveCart(ctx, cart.Cart{Owner: "USR-9", Lines: []cart.Line{{ProductID: "1", Quantity: 1}}}))

	// when
	err := repo.UpdateUser(ctx, user.User{ID: "USR-9", Username: "rosa", Role: user.RoleVendor})

	// then
	require.NoError(t, err)
	u, err := repo.GetUserByUsername(ctx, "rosa")
	require.NoError(t, err)
	assert.Equal(t, user.RoleVendor, u.Role)

	assert.ErrorIs(t, repo.UpdateUser(ctx, user.User{Username: "ghost"}), user.ErrNotFound)

	require.NoError(t, repo.DeleteUser(ctx, "rosa"))
	_, err = repo.GetUserByUsername(ctx, "rosa")
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.NotContains(t, store.Snapshot().Carts, "USR-9")
	assert.ErrorIs(t, repo.DeleteUser(ctx, "rosa"), user.ErrNotFound)
}

func TestCartRepo(t *testing.T) {
	repo := NewCartRepo(storeWith())
	ctx := context.Background()

	empty, err := repo.GetCart(ctx, "CST-909")
	require.NoError(t, err)
	assert.Equal(t, "CST-909", empty.Owner)
	assert.Empty(t, empty.Lines)

	require.NoError(t, repo.SaveCart(ctx, cart.Cart{Owner: "CST-909", Lines: []cart.Line{{ProductID: "1", Quantity: 1}}}))
	saved, err := repo.GetCart(ctx, "CST-909")
	require.NoError(t, err)
	saved.Lines[0].Quantity = 7

	again, err := repo.GetCart(ctx, "CST-909")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Quantity)

	require.NoError(t, repo.DeleteCart(ctx, "CST-909"))
	cleared, err := repo.GetCart(ctx, "CST-909")
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
}

func TestEventSink_Pagination(t *testing.T) {
	// given
	sink := NewEventSink(storeWith())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := sink.CreateOrderEvent(ctx, order.NewOrderEvent{
			OrderID:   "ORD-1",
			Kind:      order.EventStatusChanged,
			Data:      json.RawMessage(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	_, err := sink.CreateOrderEvent(ctx, order.NewOrderEvent{OrderID: "ORD-2", Kind: order.EventOrderCreated, CreatedAt: base})
	require.NoError(t, err)

	// when
	first, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{OrderIDs: []string{"ORD-1"}, Limit: 2, SortAsc: true})
	require.NoError(t, err)
	second, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{OrderIDs: []string{"ORD-1"}, Limit: 2, SortAsc: true, Cursor: first.NextCursor})
	require.NoError(t, err)
	third, err := sink.GetOrderEvents(ctx, order.OrderEventQuery{OrderIDs: []string{"ORD-1"}, Limit: 2, SortAsc: true, Cursor: second.NextCursor})
	require.NoError(t, err)

	// then
	assert.True(t, first.HasMore)
	assert.True(t, second.HasMore)
	assert.False(t, third.HasMore)
	assert.Empty(t, third.NextCursor)
	assert.Len(t, third.Items, 1)
	assert.Equal(t, base, first.Items[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Second), second.Items[0].CreatedAt)
	assert.Equal(t, base.Add(4*time.Second), third.Items[0].CreatedAt)
}

func TestEventSink_MalformedCursor(t *testing.T) {
	sink := NewEventSink(storeWith())

	_, err := sink.GetOrderEvents(context.Background(), order.OrderEventQuery{Cursor: "%%%"})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestStore_OnCommit(t *testing.T) {
	// given
	store := storeWith(product("1", 4))
	var got []State
	store.OnCommit(func(st State) { got = append(got, st) })
	ctx := context.Background()

	// when
	require.NoError(t, NewOrderRepo(store).ReserveStock(ctx, "1", 1))
	require.NoError(t, NewCartRepo(store).SaveCart(ctx, cart.Cart{Owner: "CST-909"}))
	_ = NewOrderRepo(store).ReserveStock(ctx, "1", 100)

	// then
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Products["1"].Stock)
	assert.Contains(t, got[1].Carts, "CST-909")
}

func TestStore_SnapshotRestore(t *testing.T) {
	store := storeWith(product("1", 4))
	snap := store.Snapshot()

	require.NoError(t, NewProductRepo(store).SetStock(context.Background(), "1", 0))
	store.Restore(snap)

	assert.Equal(t, 4, stockOf(t, store, "1"))
}

func TestDefaultSeed(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)

	assert.Len(t, seed.Users, 4)
	assert.Len(t, seed.Products, 12)

	st := seed.State()
	admin, ok := st.Users["admin"]
	require.True(t, ok)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.Equal(t, "USR-001", admin.ID)
	assert.Equal(t, 2022, admin.JoinDate.Year())

	sourdough, ok := st.Products["1"]
	require.True(t, ok)
	assert.Equal(t, "Artisan Sourdough", sourdough.Name)
	assert.True(t, decimal.RequireFromString("8.50").Equal(sourdough.Price))
	assert.Equal(t, 24, sourdough.Stock)
	require.NotNil(t, sourdough.BreadType)
	assert.Equal(t, catalog.BreadSourdough, *sourdough.BreadType)
}

func TestParseSeed_RejectsInvalidProducts(t *testing.T) {
	_, err := ParseSeed([]byte(`
products:
  - id: "x"
    name: "Broken"
    price: "-1"
    category: cake
`))

	assert.Error(t, err)
}


// reservingProductRepo lets a checkout reserve stock right after the first catalog read.
type reservingProductRepo struct {
	*ProductRepo
	orders   *OrderRepo
	quantity int
	once     sync.Once
	err      error
}

func (r *reservingProductRepo) GetProducts(ctx context.Context, query catalog.ProductsQuery) ([]catalog.Product, error) {
	products, err := r.ProductRepo.GetProducts(ctx, query)
	r.once.Do(func() {
		r.err = r.orders.ReserveStock(ctx, "1", r.quantity)
	})
	return products, err
}

func TestProductRepo_EditKeepsConcurrentReservation(t *testing.T) {
	vendor := user.Actor{UserID: "2", Name: "Chef Pierre", Role: user.RoleVendor}

	tests := []struct {
		name string
		edit func(ctx context.Context, ledger *catalog.LedgerService) error
	}{
		{
			name: "rename",
			edit: func(ctx context.Context, ledger *catalog.LedgerService) error {
				name := "Renamed"
				_, err := ledger.UpdateProduct(ctx, vendor, "1", catalog.UpdateProductRequest{Name: &name})
				return err
			},
		},
		{
			name: "delete",
			edit: func(ctx context.Context, ledger *catalog.LedgerService) error {
				return ledger.DeleteProduct(ctx, vendor, "1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			store := storeWith(product("1", 5))
			repo := &reservingProductRepo{
				ProductRepo: NewProductRepo(store),
				orders:      NewOrderRepo(store),
				quantity:    3,
			}
			ledger := catalog.NewLedgerService(repo, logger.NewNop())

			// when
			err := tt.edit(ctx, ledger)

			// then
			require.NoError(t, err)
			require.NoError(t, repo.err)
			assert.Equal(t, 2, stockOf(t, store, "1"))
		})
	}
}
