package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/plateful/backend/internal/models"
)

// ShoppingListItem is one aggregated line of the shopping list: all amounts
// of an ingredient across the cart, summed per (name, unit) pair.
type ShoppingListItem struct {
	Name  string
	Total int
	Unit  string
}

// ShoppingList aggregates the ingredient amounts of every recipe in the
// user's cart. The grouping key is (ingredient name, measurement unit), so
// "Flour g" and "Flour kg" stay separate lines. Ordered by name ascending
// for deterministic output. An empty cart is ErrEmptyCart.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var cartSize int64
	if err := s.db.WithContext(ctx).Model(&models.CartEntry{}).
		Where("user_id = ?", userID).Count(&cartSize).Error; err != nil {
		return nil, err
	}
	if cartSize == 0 {
		return nil, ErrEmptyCart
	}

	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("ingredient_amounts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(ingredient_amounts.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Joins("JOIN cart_entries ON cart_entries.recipe_id = ingredient_amounts.recipe_id").
		Where("cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RenderShoppingList formats the aggregated items as the downloadable text
// report, returning the filename derived from the user's handle and the body.
func RenderShoppingList(user *models.User, items []ShoppingListItem) (filename, body string) {
	var b strings.Builder
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	fmt.Fprintf(&b, "Shopping list for %s:\n\n", name)
	for _, item := range items {
		fmt.Fprintf(&b, "%s: %d %s\n", item.Name, item.Total, item.Unit)
	}
	return fmt.Sprintf("%s_shopping_list.txt", user.Username), b.String()
}
