package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"financitos/internal/core"
	applog "financitos/internal/log"
	"financitos/internal/storage"
)

type ShoppingItemInput struct {
	Description    string
	EstimatedPrice *decimal.Decimal
	Priority       core.Priority
	Deadline       string
	ProductLink    string
	ActualPrice    *decimal.Decimal
}

// ShoppingService manages the single global shopping list. Every save
// stamps lastUpdated and keeps the items in display order.
type ShoppingService struct {
	store *storage.Accessor
	opts  Options
}

func NewShoppingService(store *storage.Accessor, opts Options) *ShoppingService {
	return &ShoppingService{store: store, opts: opts.withDefaults()}
}

// List returns the stored list with items sorted by priority and deadline.
func (s *ShoppingService) List(ctx context.Context) core.ShoppingList {
	l := s.store.GetShopping(ctx)
	l.Items = core.SortShoppingItems(l.Items)
	return l
}

func (s *ShoppingService) save(ctx context.Context, fn func(l *core.ShoppingList) error) (core.ShoppingList, error) {
	l := s.store.GetShopping(ctx)
	if err := fn(&l); err != nil {
		return core.ShoppingList{}, err
	}
	l.Items = core.SortShoppingItems(l.Items)
	l.LastUpdated = s.opts.now()
	if err := s.store.SaveShopping(ctx, l); err != nil {
		return core.ShoppingList{}, fmt.Errorf("save shopping list: %w", err)
	}
	return l, nil
}

func (s *ShoppingService) AddItem(ctx context.Context, in ShoppingItemInput) (core.ShoppingItem, error) {
	now := s.opts.now()
	item := core.ShoppingItem{
		ID:             s.opts.NewID(),
		Description:    in.Description,
		EstimatedPrice: core.RoundMoneyPtr(in.EstimatedPrice),
		Priority:       in.Priority,
		Deadline:       in.Deadline,
		ProductLink:    in.ProductLink,
		ActualPrice:    core.RoundMoneyPtr(in.ActualPrice),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	if _, err := s.save(ctx, func(l *core.ShoppingList) error {
		l.Items = append(l.Items, item)
		return nil
	}); err != nil {
		return core.ShoppingItem{}, err
	}

	slog.InfoContext(ctx, "Shopping item added",
		applog.FieldComponent, applog.ComponentShopping, "operation", "create", "entry_id", item.ID)
	return item, nil
}

func (s *ShoppingService) UpdateItem(ctx context.Context, id string, in ShoppingItemInput) (core.ShoppingItem, error) {
	var updated core.ShoppingItem
	_, err := s.save(ctx, func(l *core.ShoppingList) error {
		for i := range l.Items {
			if l.Items[i].ID != id {
				continue
			}
			it := l.Items[i]
			it.Description = in.Description
			it.EstimatedPrice = core.RoundMoneyPtr(in.EstimatedPrice)
			it.Priority = in.Priority
			it.Deadline = in.Deadline
			it.ProductLink = in.ProductLink
			it.ActualPrice = core.RoundMoneyPtr(in.ActualPrice)
			it.UpdatedAt = s.opts.now()
			if err := it.Validate(); err != nil {
				return err
			}
			l.Items[i] = it
			updated = it
			return nil
		}
		return fmt.Errorf("%w: shopping item %s", ErrEntryNotFound, id)
	})
	return updated, err
}

// ToggleItem flips an item's purchased flag.
func (s *ShoppingService) ToggleItem(ctx context.Context, id string) (core.ShoppingItem, error) {
	var updated core.ShoppingItem
	_, err := s.save(ctx, func(l *core.ShoppingList) error {
		for i := range l.Items {
			if l.Items[i].ID == id {
				l.Items[i].TogglePurchased(s.opts.now())
				updated = l.Items[i]
				return nil
			}
		}
		return fmt.Errorf("%w: shopping item %s", ErrEntryNotFound, id)
	})
	return updated, err
}

func (s *ShoppingService) RemoveItem(ctx context.Context, id string) error {
	_, err := s.save(ctx, func(l *core.ShoppingList) error {
		for i := range l.Items {
			if l.Items[i].ID == id {
				l.Items = append(l.Items[:i], l.Items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: shopping item %s", ErrEntryNotFound, id)
	})
	return err
}
