package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/craftycorner/backend/internal/apperror"
	"github.com/craftycorner/backend/internal/catalog"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) GetByUserID(ctx context.Context, userID string) (*Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, userID string) (*Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *mockRepository) AddItem(ctx context.Context, cartID, variantID string, quantity int, unitPrice decimal.Decimal) error {
	args := m.Called(ctx, cartID, variantID, quantity, unitPrice)
	return args.Error(0)
}

func (m *mockRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (bool, error) {
	args := m.Called(ctx, cartID, itemID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) DeleteItem(ctx context.Context, cartID, itemID string) (bool, error) {
	args := m.Called(ctx, cartID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Clear(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ResolveVariant(ctx context.Context, id string) (*catalog.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, userID string) (*Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, userID string, cart *Cart) error {
	args := m.Called(ctx, userID, cart)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestUseCase(repo Repository, cat Catalog, cache Cache) *UseCase {
	return NewUseCase(repo, cat, cache, zap.NewNop())
}

func TestGetCart_CacheHit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cache := new(mockCache)
	cached := &Cart{ID: "cart-1", UserID: "user-1"}

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	cache.On("Get", ctx, "user-1").Return(cached, nil)

	uc := newTestUseCase(repo, new(mockCatalog), cache)

	// Act
	c, err := uc.GetCart(ctx, "user-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, cached, c)
	repo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestGetCart_MissLoadsAndCaches(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cache := new(mockCache)
	stored := &Cart{ID: "cart-1", UserID: "user-1"}

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	cache.On("Get", ctx, "user-1").Return(nil, ErrCacheMiss)
	repo.On("GetByUserID", ctx, "user-1").Return(stored, nil)
	cache.On("Set", ctx, "user-1", stored).Return(nil)

	uc := newTestUseCase(repo, new(mockCatalog), cache)

	// Act
	c, err := uc.GetCart(ctx, "user-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, stored, c)
	cache.AssertExpectations(t)
}

func TestGetCart_CreatesCartOnFirstAccess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cache := new(mockCache)
	created := &Cart{ID: "cart-1", UserID: "user-1"}

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	cache.On("Get", ctx, "user-1").Return(nil, ErrCacheMiss)
	repo.On("GetByUserID", ctx, "user-1").Return(nil, apperror.NotFound("cart_not_found", "cart not found"))
	repo.On("Create", ctx, "user-1").Return(created, nil)
	cache.On("Set", ctx, "user-1", created).Return(nil)

	uc := newTestUseCase(repo, new(mockCatalog), cache)

	// Act
	c, err := uc.GetCart(ctx, "user-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, created, c)
	repo.AssertExpectations(t)
}

func TestGetCart_UnknownUser(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	repo.On("UserExists", ctx, "ghost-1").Return(false, nil)

	uc := newTestUseCase(repo, new(mockCatalog), new(mockCache))

	// Act
	c, err := uc.GetCart(ctx, "ghost-1")

	// Assert
	assert.Nil(t, c)
	assert.Equal(t, "user_not_found", apperror.CodeOf(err))
}

func TestAddItem_SnapshotsResolvedPrice(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cat := new(mockCatalog)
	cache := new(mockCache)
	price := decimal.RequireFromString("19.99")

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	repo.On("GetByUserID", ctx, "user-1").Return(&Cart{ID: "cart-1", UserID: "user-1"}, nil)
	cat.On("ResolveVariant", ctx, "variant-1").Return(&catalog.Variant{ID: "variant-1", Price: price, PriceSet: true}, nil)
	repo.On("AddItem", ctx, "cart-1", "variant-1", 2, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(price)
	})).Return(nil)
	cache.On("Delete", ctx, "user-1").Return(nil)

	uc := newTestUseCase(repo, cat, cache)

	// Act
	c, err := uc.AddItem(ctx, "user-1", "variant-1", 2)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, c)
	repo.AssertExpectations(t)
	cat.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	// Arrange
	ctx := context.Background()
	uc := newTestUseCase(new(mockRepository), new(mockCatalog), new(mockCache))

	// Act
	c, err := uc.AddItem(ctx, "user-1", "variant-1", 0)

	// Assert
	assert.Nil(t, c)
	assert.Equal(t, "invalid_quantity", apperror.CodeOf(err))
}

func TestSetItemQuantity_ZeroDeletesItem(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cache := new(mockCache)

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	repo.On("GetByUserID", ctx, "user-1").Return(&Cart{ID: "cart-1", UserID: "user-1"}, nil)
	repo.On("DeleteItem", ctx, "cart-1", "item-1").Return(true, nil)
	cache.On("Delete", ctx, "user-1").Return(nil)

	uc := newTestUseCase(repo, new(mockCatalog), cache)

	// Act
	c, err := uc.SetItemQuantity(ctx, "user-1", "item-1", 0)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, c)
	repo.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestSetItemQuantity_UpdatesExistingItem(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)
	cache := new(mockCache)

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	repo.On("GetByUserID", ctx, "user-1").Return(&Cart{ID: "cart-1", UserID: "user-1"}, nil)
	repo.On("UpdateItemQuantity", ctx, "cart-1", "item-1", 5).Return(true, nil)
	cache.On("Delete", ctx, "user-1").Return(nil)

	uc := newTestUseCase(repo, new(mockCatalog), cache)

	// Act
	c, err := uc.SetItemQuantity(ctx, "user-1", "item-1", 5)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, c)
	repo.AssertExpectations(t)
}

func TestRemoveItem_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockRepository)

	repo.On("UserExists", ctx, "user-1").Return(true, nil)
	repo.On("GetByUserID", ctx, "user-1").Return(&Cart{ID: "cart-1", UserID: "user-1"}, nil)
	repo.On("DeleteItem", ctx, "cart-1", "ghost-item").Return(false, nil)

	uc := newTestUseCase(repo, new(mockCatalog), new(mockCache))

	// Act
	c, err := uc.RemoveItem(ctx, "user-1", "ghost-item")

	// Assert
	assert.Nil(t, c)
	assert.Equal(t, "cart_item_not_found", apperror.CodeOf(err))
}

func TestCartTotal_SumsLineTotals(t *testing.T) {
	// Arrange
	c := &Cart{
		Items: []Item{
			{Quantity: 2, UnitPriceSnapshot: decimal.RequireFromString("19.99")},
			{Quantity: 1, UnitPriceSnapshot: decimal.RequireFromString("5.50")},
		},
	}

	// Act & Assert
	assert.True(t, c.Total().Equal(decimal.RequireFromString("45.48")))
	assert.False(t, c.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())
}
