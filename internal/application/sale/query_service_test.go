package sale

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role identity.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func TestQueryService_ListSalesResolvesReferences(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "9.99", 5)
	b := f.addProduct(t, "B", "1.50", 5)

	cashier, err := identity.NewCashier("cashier1", "secret1", identity.CashierProfile{
		FirstName:   "Ana",
		LastName:    "Lima",
		Birthday:    time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "555-0100",
	})
	require.NoError(t, err)

	res, err := f.proc.Process(context.Background(), cashier.ID, cart(
		sale.RequestLine{ProductID: a.ID, Quantity: 2},
		sale.RequestLine{ProductID: b.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.True(t, res.IsCommitted())

	// B is removed from the catalog after the sale
	delete(f.catalog.products, b.ID)

	users := new(MockUserRepository)
	users.On("FindByIDs", mock.Anything, []uuid.UUID{cashier.ID}).Return([]*identity.User{cashier}, nil)

	svc := NewQueryService(f.sales, f.catalog, users)
	out, err := svc.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	require.NotNil(t, got.User)
	assert.Equal(t, "cashier1", got.User.Username)
	assert.Equal(t, "cashier", got.User.Role)
	assert.True(t, decimal.RequireFromString("21.48").Equal(got.Total))

	require.Len(t, got.Products, 2)
	require.NotNil(t, got.Products[0].Product)
	assert.Equal(t, "BC-A", got.Products[0].Product.Barcode)
	assert.Nil(t, got.Products[1].Product)
	assert.Equal(t, "B", got.Products[1].ProductName)
	users.AssertExpectations(t)
}

func TestQueryService_EmptyStore(t *testing.T) {
	f := newFixture(t)
	svc := NewQueryService(f.sales, f.catalog, new(MockUserRepository))

	out, err := svc.ListSales(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestQueryService_UserLookupFailure(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1.00", 5)
	_, err := f.proc.Process(context.Background(), uuid.New(), cart(sale.RequestLine{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	users := new(MockUserRepository)
	users.On("FindByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err = NewQueryService(f.sales, f.catalog, users).ListSales(context.Background())
	assert.True(t, errors.Is(err, shared.ErrStorageUnavailable))
}

func TestQueryService_ListSalesInWindow(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1.00", 10)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{-48 * time.Hour, 0, time.Hour} {
		at := base.Add(offset)
		f.proc.SetClock(func() time.Time { return at })
		_, err := f.proc.Process(context.Background(), uuid.New(), cart(sale.RequestLine{ProductID: a.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	users := new(MockUserRepository)
	users.On("FindByIDs", mock.Anything, mock.Anything).Return([]*identity.User{}, nil)

	out, err := NewQueryService(f.sales, f.catalog, users).ListSalesInWindow(context.Background(), base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, base, out[0].CreatedAt)
	assert.Nil(t, out[0].User)
}

func TestLowStockAlertHandler(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1.00", 1)
	res, err := f.proc.Process(context.Background(), uuid.New(), cart(sale.RequestLine{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)

	h := NewLowStockAlertHandler(f.ledger, 0, zap.NewNop())
	assert.Equal(t, []string{sale.EventTypeSaleCompleted}, h.EventTypes())
	assert.NoError(t, h.Handle(context.Background(), sale.NewSaleCompletedEvent(res.Sale)))

	other := shared.NewBaseDomainEvent("Other", "Other", uuid.New())
	assert.Error(t, h.Handle(context.Background(), &other))
}
