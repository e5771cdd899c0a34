package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/storage"
	"github.com/plateful/backend/internal/validation"
)

// RecipeService handles recipe CRUD, the favorite/cart toggles and the
// shopping-list aggregation.
type RecipeService struct {
	db     *gorm.DB
	images storage.Store
	logger *zap.Logger
}

func NewRecipeService(db *gorm.DB, images storage.Store, logger *zap.Logger) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{db: db, images: images, logger: logger}
}

// IngredientInput is one (ingredient, amount) pair in a create/update payload.
type IngredientInput struct {
	ID     uuid.UUID
	Amount int
}

// RecipeInput is the write payload for a recipe. Image is either a base64
// data URI to be decoded and stored, or an already-stored URL.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientInput
}

// RecipeFilter selects recipes for listing. Favorited and InCart are
// tri-state: nil means "no filter". UserID is the acting user; when nil
// (anonymous) the relation filters are bypassed entirely.
type RecipeFilter struct {
	TagSlugs  []string
	AuthorID  *uuid.UUID
	Favorited *bool
	InCart    *bool
	UserID    *uuid.UUID
	Limit     int
	Offset    int
}

const (
	minAmount      = 1
	maxAmount      = 1000
	minCookingTime = 1
	maxCookingTime = 500
)

// Create validates the payload, stores the image and writes the recipe with
// its tag set and ingredient amounts in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	name, err := validation.RecipeName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if in.CookingTime < minCookingTime || in.CookingTime > maxCookingTime {
		return nil, fmt.Errorf("%w: cooking_time must be within [%d, %d]", ErrInvalidInput, minCookingTime, maxCookingTime)
	}

	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}
	pairs, err := s.resolveIngredients(ctx, in.Ingredients)
	if err != nil {
		return nil, err
	}
	image, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        in.Text,
		Image:       image,
		CookingTime: in.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return linkIngredients(tx, recipe.ID, pairs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("author_id", authorID.String()))
	return s.Get(ctx, recipe.ID)
}

// Update applies the payload to an existing recipe. Only the author or a
// staff user may update. Tag and ingredient associations are fully replaced
// by the submitted lists.
func (s *RecipeService) Update(ctx context.Context, actorID, recipeID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAuthorOrStaff(ctx, actorID, recipe.AuthorID); err != nil {
		return nil, err
	}

	name, err := validation.RecipeName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if in.CookingTime < minCookingTime || in.CookingTime > maxCookingTime {
		return nil, fmt.Errorf("%w: cooking_time must be within [%d, %d]", ErrInvalidInput, minCookingTime, maxCookingTime)
	}
	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}
	pairs, err := s.resolveIngredients(ctx, in.Ingredients)
	if err != nil {
		return nil, err
	}
	image := recipe.Image
	if in.Image != "" {
		if image, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":         name,
			"text":         in.Text,
			"image":        image,
			"cooking_time": in.CookingTime,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		// Replace, not merge: discard the previous amounts and rebuild.
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
			return err
		}
		return linkIngredients(tx, recipeID, pairs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, recipeID)
}

// Delete removes a recipe. Only the author or a staff user may delete.
func (s *RecipeService) Delete(ctx context.Context, actorID, recipeID uuid.UUID) error {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrStaff(ctx, actorID, recipe.AuthorID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.IngredientAmount{}, &models.Favorite{}, &models.CartEntry{}} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// Get retrieves a recipe with author, tags and ingredient amounts preloaded.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &recipe, nil
}

// List applies the filter and returns the matching page ordered by publish
// date descending, along with the unpaged match count.
func (s *RecipeService) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if len(f.TagSlugs) > 0 {
		// Subquery keeps the result set distinct when a recipe matches
		// several of the requested slugs.
		query = query.Where("recipes.id IN (?)",
			s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *f.AuthorID)
	}
	// Relation filters apply to authenticated users only; anonymous requests
	// fall through to the unfiltered set.
	if f.UserID != nil {
		if f.Favorited != nil {
			query = relationSubquery(query, "favorites", *f.UserID, *f.Favorited)
		}
		if f.InCart != nil {
			query = relationSubquery(query, "cart_entries", *f.UserID, *f.InCart)
		}
	}

	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}
	var recipes []models.Recipe
	err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("recipes.pub_date DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

func relationSubquery(query *gorm.DB, table string, userID uuid.UUID, include bool) *gorm.DB {
	cond := fmt.Sprintf("recipes.id IN (SELECT recipe_id FROM %s WHERE user_id = ?)", table)
	if !include {
		cond = fmt.Sprintf("recipes.id NOT IN (SELECT recipe_id FROM %s WHERE user_id = ?)", table)
	}
	return query.Where(cond, userID)
}

// Favorite adds the recipe to the user's favorites and returns the recipe
// for the crop-view response. Adding twice is ErrAlreadyExists.
func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addRecipeRelation(ctx, FavoriteRelation, userID, recipeID)
}

func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRecipeRelation(ctx, FavoriteRelation, userID, recipeID)
}

// AddToCart adds the recipe to the user's shopping cart.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addRecipeRelation(ctx, CartRelation, userID, recipeID)
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRecipeRelation(ctx, CartRelation, userID, recipeID)
}

func (s *RecipeService) addRecipeRelation(ctx context.Context, rel Relation, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := addRelation(ctx, s.db, rel, userID, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) removeRecipeRelation(ctx context.Context, rel Relation, userID, recipeID uuid.UUID) error {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return err
	}
	return removeRelation(ctx, s.db, rel, userID, recipeID)
}

// RelationFlags reports, for each given recipe, whether the user has it
// favorited and in the cart. Used when serializing recipe lists.
func (s *RecipeService) RelationFlags(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (favorited, inCart map[uuid.UUID]bool, err error) {
	favorited = make(map[uuid.UUID]bool)
	inCart = make(map[uuid.UUID]bool)
	if userID == nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var favs []models.Favorite
	if err = s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Find(&favs).Error; err != nil {
		return nil, nil, err
	}
	for _, f := range favs {
		favorited[f.RecipeID] = true
	}

	var entries []models.CartEntry
	if err = s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		inCart[e.RecipeID] = true
	}
	return favorited, inCart, nil
}

// resolveTags checks that every submitted tag id exists and returns the tags.
func (s *RecipeService) resolveTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", ErrInvalidInput)
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, fmt.Errorf("%w: unknown tag id", ErrInvalidInput)
	}
	return tags, nil
}

// resolveIngredients validates amounts and ids. Duplicate ingredient ids in
// one submission are rejected outright instead of being silently collapsed.
func (s *RecipeService) resolveIngredients(ctx context.Context, in []IngredientInput) ([]models.IngredientAmount, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one ingredient is required", ErrInvalidInput)
	}
	seen := make(map[uuid.UUID]bool, len(in))
	ids := make([]uuid.UUID, 0, len(in))
	for _, pair := range in {
		if pair.Amount < minAmount || pair.Amount > maxAmount {
			return nil, fmt.Errorf("%w: ingredient amount must be within [%d, %d]", ErrInvalidInput, minAmount, maxAmount)
		}
		if seen[pair.ID] {
			return nil, fmt.Errorf("%w: duplicate ingredient %s", ErrInvalidInput, pair.ID)
		}
		seen[pair.ID] = true
		ids = append(ids, pair.ID)
	}

	var existing []models.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&existing).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, ing := range existing {
		known[ing.ID] = true
	}

	pairs := make([]models.IngredientAmount, 0, len(in))
	for _, pair := range in {
		if !known[pair.ID] {
			return nil, fmt.Errorf("%w: unknown ingredient %s", ErrInvalidInput, pair.ID)
		}
		pairs = append(pairs, models.IngredientAmount{IngredientID: pair.ID, Amount: pair.Amount})
	}
	return pairs, nil
}

// linkIngredients get-or-creates one amount row per (recipe, ingredient)
// pair. An already-present row keeps its amount.
func linkIngredients(tx *gorm.DB, recipeID uuid.UUID, pairs []models.IngredientAmount) error {
	for _, pair := range pairs {
		row := models.IngredientAmount{
			RecipeID:     recipeID,
			IngredientID: pair.IngredientID,
		}
		err := tx.Where("recipe_id = ? AND ingredient_id = ?", recipeID, pair.IngredientID).
			Attrs(models.IngredientAmount{Amount: pair.Amount}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RecipeService) requireAuthorOrStaff(ctx context.Context, actorID, authorID uuid.UUID) error {
	if actorID == authorID {
		return nil
	}
	var actor models.User
	if err := s.db.WithContext(ctx).First(&actor, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionDenied
		}
		return err
	}
	if !actor.IsStaff || !actor.IsActive {
		return ErrPermissionDenied
	}
	return nil
}

// storeImage persists a base64 data-URI payload and returns its URL. A value
// that is not a data URI (an existing URL, or empty) passes through.
func (s *RecipeService) storeImage(ctx context.Context, image string) (string, error) {
	if !strings.HasPrefix(image, "data:image") {
		return image, nil
	}
	if s.images == nil {
		return "", fmt.Errorf("%w: image uploads are not configured", ErrInvalidInput)
	}
	data, ext, err := storage.DecodeBase64Image(image)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return s.images.Save(ctx, data, ext)
}
