package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/craftycorner/backend/internal/apperror"
	"github.com/craftycorner/backend/internal/catalog"
)

// Catalog resolves the variant a client wants to add. Satisfied by
// catalog.PostgresRepository.
type Catalog interface {
	ResolveVariant(ctx context.Context, id string) (*catalog.Variant, error)
}

// UseCase contains the cart business logic. Quantities are never
// validated against stock here; placement is the only gate.
type UseCase struct {
	repo    Repository
	catalog Catalog
	cache   Cache
	sfg     singleflight.Group // prevents cache stampede
	logger  *zap.Logger
}

func NewUseCase(repo Repository, cat Catalog, cache Cache, logger *zap.Logger) *UseCase {
	return &UseCase{
		repo:    repo,
		catalog: cat,
		cache:   cache,
		logger:  logger,
	}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (uc *UseCase) GetCart(ctx context.Context, userID string) (*Cart, error) {
	if err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	v, err, _ := uc.sfg.Do(userID, func() (interface{}, error) {
		c, err := uc.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		c, err = uc.getOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := uc.cache.Set(ctx, userID, c); err != nil {
			uc.logger.Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart), nil
}

// AddItem resolves the variant and increments the matching cart item by
// quantity, snapshotting the current catalog price on first insert.
func (uc *UseCase) AddItem(ctx context.Context, userID, variantID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperror.InvalidState("invalid_quantity", "quantity must be at least 1")
	}
	if err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	c, err := uc.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	variant, err := uc.catalog.ResolveVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.AddItem(ctx, c.ID, variant.ID, quantity, variant.Price); err != nil {
		return nil, err
	}

	return uc.refresh(ctx, userID)
}

// RemoveItem deletes one item from the user's cart.
func (uc *UseCase) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := uc.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := uc.repo.DeleteItem(ctx, c.ID, itemID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apperror.NotFound("cart_item_not_found", "cart item %s not found", itemID)
	}

	return uc.refresh(ctx, userID)
}

// SetItemQuantity overwrites an item's quantity. A non-positive quantity
// removes the item.
func (uc *UseCase) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	c, err := uc.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		removed, err := uc.repo.DeleteItem(ctx, c.ID, itemID)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, apperror.NotFound("cart_item_not_found", "cart item %s not found", itemID)
		}
		return uc.refresh(ctx, userID)
	}

	updated, err := uc.repo.UpdateItemQuantity(ctx, c.ID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperror.NotFound("cart_item_not_found", "cart item %s not found", itemID)
	}

	return uc.refresh(ctx, userID)
}

// Clear removes every item from the user's cart. The cart row survives.
func (uc *UseCase) Clear(ctx context.Context, userID string) error {
	c, err := uc.requireCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.repo.Clear(ctx, c.ID); err != nil {
		return err
	}
	uc.invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached cart. Called by the settlement coordinator
// after the cart is emptied inside the placement transaction.
func (uc *UseCase) Invalidate(ctx context.Context, userID string) {
	uc.invalidate(ctx, userID)
}

func (uc *UseCase) requireUser(ctx context.Context, userID string) error {
	exists, err := uc.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return apperror.NotFound("user_not_found", "user %s not found", userID)
	}
	return nil
}

func (uc *UseCase) requireCart(ctx context.Context, userID string) (*Cart, error) {
	if err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return uc.repo.GetByUserID(ctx, userID)
}

func (uc *UseCase) getOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := uc.repo.GetByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if apperror.KindOf(err) == apperror.KindNotFound {
		return uc.repo.Create(ctx, userID)
	}
	return nil, err
}

func (uc *UseCase) refresh(ctx context.Context, userID string) (*Cart, error) {
	uc.invalidate(ctx, userID)
	return uc.repo.GetByUserID(ctx, userID)
}

func (uc *UseCase) invalidate(ctx context.Context, userID string) {
	if err := uc.cache.Delete(ctx, userID); err != nil {
		uc.logger.Warn("cart cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
