package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/testutil"
)

func recipeFixture(t *testing.T) (*RecipeService, *models.User, []uuid.UUID, []IngredientInput) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewRecipeService(db, nil, nil)
	author := testutil.CreateUser(t, db, "chef")
	tag := testutil.CreateTag(t, db, "Breakfast", "breakfast", "#E26C2D")
	flour := testutil.CreateIngredient(t, db, "Flour", "g")
	sugar := testutil.CreateIngredient(t, db, "Sugar", "g")
	return svc, author, []uuid.UUID{tag.ID}, []IngredientInput{
		{ID: flour.ID, Amount: 200},
		{ID: sugar.ID, Amount: 50},
	}
}

func TestCreateRecipe(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	recipe, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, author.ID, recipe.AuthorID)
	assert.Len(t, recipe.Tags, 1)
	assert.Len(t, recipe.Ingredients, 2)
	assert.False(t, recipe.PubDate.IsZero())
}

func TestCreateRecipeValidation(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	base := RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: ingredients,
	}

	in := base
	in.Name = "  "
	_, err := svc.Create(ctx, author.ID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.CookingTime = 0
	_, err = svc.Create(ctx, author.ID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.CookingTime = 501
	_, err = svc.Create(ctx, author.ID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.TagIDs = []uuid.UUID{uuid.New()}
	_, err = svc.Create(ctx, author.ID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = base
	in.TagIDs = nil
	_, err = svc.Create(ctx, author.ID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngredientAmountBounds(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	mk := func(amount int) RecipeInput {
		return RecipeInput{
			Name:        "Bread",
			Text:        "Bake.",
			CookingTime: 60,
			TagIDs:      tags,
			Ingredients: []IngredientInput{{ID: ingredients[0].ID, Amount: amount}},
		}
	}

	for _, bad := range []int{0, -1, 1001} {
		_, err := svc.Create(ctx, author.ID, mk(bad))
		assert.ErrorIs(t, err, ErrInvalidInput, "amount %d", bad)
	}
	for _, ok := range []int{1, 1000} {
		_, err := svc.Create(ctx, author.ID, mk(ok))
		assert.NoError(t, err, "amount %d", ok)
	}
}

func TestDuplicateIngredientRejected(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Cake",
		Text:        "Bake.",
		CookingTime: 45,
		TagIDs:      tags,
		Ingredients: []IngredientInput{
			{ID: ingredients[0].ID, Amount: 100},
			{ID: ingredients[0].ID, Amount: 200},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnknownIngredientRejected(t *testing.T) {
	svc, author, tags, _ := recipeFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Cake",
		Text:        "Bake.",
		CookingTime: 45,
		TagIDs:      tags,
		Ingredients: []IngredientInput{{ID: uuid.New(), Amount: 100}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateReplacesIngredientList(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	recipe, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	require.Len(t, recipe.Ingredients, 2)

	// keep only the first ingredient, with a new amount
	updated, err := svc.Update(ctx, author.ID, recipe.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 25,
		TagIDs:      tags,
		Ingredients: []IngredientInput{{ID: ingredients[0].ID, Amount: 350}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, ingredients[0].ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, 350, updated.Ingredients[0].Amount)
	assert.Equal(t, 25, updated.CookingTime)
}

func TestUpdateRequiresAuthorOrStaff(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	db := svc.db
	ctx := context.Background()

	recipe, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: ingredients,
	})
	require.NoError(t, err)

	in := RecipeInput{
		Name:        "Stolen pancakes",
		Text:        "Mine now.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: ingredients,
	}

	stranger := testutil.CreateUser(t, db, "mallory")
	_, err = svc.Update(ctx, stranger.ID, recipe.ID, in)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, svc.Delete(ctx, stranger.ID, recipe.ID), ErrPermissionDenied)

	staff := testutil.CreateUser(t, db, "admin")
	require.NoError(t, db.Model(staff).Update("is_staff", true).Error)
	_, err = svc.Update(ctx, staff.ID, recipe.ID, in)
	assert.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, staff.ID, recipe.ID))
}

func TestLinkIngredientsKeepsExistingAmount(t *testing.T) {
	svc, author, tags, ingredients := recipeFixture(t)
	ctx := context.Background()

	recipe, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      tags,
		Ingredients: []IngredientInput{{ID: ingredients[0].ID, Amount: 200}},
	})
	require.NoError(t, err)

	// re-linking the same pair neither duplicates the row nor overwrites
	// the stored amount
	pairs := []models.IngredientAmount{{IngredientID: ingredients[0].ID, Amount: 999}}
	require.NoError(t, linkIngredients(svc.db, recipe.ID, pairs))

	var rows []models.IngredientAmount
	require.NoError(t, svc.db.Where("recipe_id = ?", recipe.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 200, rows[0].Amount)
}

func TestListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRecipeService(db, nil, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	breakfast := testutil.CreateTag(t, db, "Breakfast", "breakfast", "#E26C2D")
	dinner := testutil.CreateTag(t, db, "Dinner", "dinner", "#49B64E")

	pancakes := testutil.CreateRecipe(t, db, alice, "Pancakes", nil)
	soup := testutil.CreateRecipe(t, db, bob, "Soup", nil)
	stew := testutil.CreateRecipe(t, db, bob, "Stew", nil)
	require.NoError(t, db.Model(pancakes).Association("Tags").Append(breakfast))
	require.NoError(t, db.Model(soup).Association("Tags").Append(dinner))
	require.NoError(t, db.Model(stew).Association("Tags").Append(dinner, breakfast))

	// spread publish dates so ordering is observable
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(pancakes).Update("pub_date", base).Error)
	require.NoError(t, db.Model(soup).Update("pub_date", base.AddDate(0, 0, 1)).Error)
	require.NoError(t, db.Model(stew).Update("pub_date", base.AddDate(0, 0, 2)).Error)

	// no filter: newest first
	all, count, err := svc.List(ctx, RecipeFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	require.Len(t, all, 3)
	assert.Equal(t, "Stew", all[0].Name)
	assert.Equal(t, "Pancakes", all[2].Name)

	// tag filter intersects and stays distinct
	got, count, err := svc.List(ctx, RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, got, 3)

	got, _, err = svc.List(ctx, RecipeFilter{TagSlugs: []string{"breakfast"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// author filter
	got, _, err = svc.List(ctx, RecipeFilter{AuthorID: &bob.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// favorited tri-state for an authenticated user
	_, err = svc.Favorite(ctx, alice.ID, soup.ID)
	require.NoError(t, err)

	yes, no := true, false
	got, _, err = svc.List(ctx, RecipeFilter{UserID: &alice.ID, Favorited: &yes})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Soup", got[0].Name)

	got, _, err = svc.List(ctx, RecipeFilter{UserID: &alice.ID, Favorited: &no})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// anonymous users bypass relation filters entirely
	got, _, err = svc.List(ctx, RecipeFilter{Favorited: &yes})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// in-cart filter
	_, err = svc.AddToCart(ctx, alice.ID, stew.ID)
	require.NoError(t, err)
	got, _, err = svc.List(ctx, RecipeFilter{UserID: &alice.ID, InCart: &yes})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Stew", got[0].Name)
}

func TestListPagination(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRecipeService(db, nil, nil)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "chef")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"First", "Second", "Third"} {
		r := testutil.CreateRecipe(t, db, author, name, nil)
		require.NoError(t, db.Model(r).Update("pub_date", base.AddDate(0, 0, i)).Error)
	}

	page, count, err := svc.List(ctx, RecipeFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	require.Len(t, page, 2)
	assert.Equal(t, "Third", page[0].Name)

	page, _, err = svc.List(ctx, RecipeFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "First", page[0].Name)
}
