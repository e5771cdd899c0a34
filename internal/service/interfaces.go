package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/plateful/backend/internal/models"
)

// IAuthService defines the interface for authentication operations.
type IAuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// IUserService defines the interface for user and subscription operations.
type IUserService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	Subscribe(ctx context.Context, followerID, authorID uuid.UUID) (*models.User, error)
	Unsubscribe(ctx context.Context, followerID, authorID uuid.UUID) error
	IsSubscribed(ctx context.Context, followerID, authorID uuid.UUID) (bool, error)
	SubscribedSet(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	SubscriptionView(ctx context.Context, authorID uuid.UUID) (*Subscription, error)
	Subscriptions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Subscription, int64, error)
}

// ICatalogService defines the interface for the tag and ingredient catalogs.
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	CreateTag(ctx context.Context, actorID uuid.UUID, in TagInput) (*models.Tag, error)
	ListIngredients(ctx context.Context, nameQuery string, limit, offset int) ([]models.Ingredient, int64, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
}

// IRecipeService defines the interface for recipe operations.
type IRecipeService interface {
	Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, actorID, recipeID uuid.UUID, in RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, actorID, recipeID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context, f RecipeFilter) ([]models.Recipe, int64, error)
	Favorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)
	Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error
	AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error
	RelationFlags(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (favorited, inCart map[uuid.UUID]bool, err error)
	ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error)
}
