package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"auth_token"`
}

type IngredientRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount" binding:"required,min=1,max=1000"`
}

type RecipeRequest struct {
	Name        string              `json:"name" binding:"required"`
	Text        string              `json:"text" binding:"required"`
	Image       string              `json:"image"`
	CookingTime int                 `json:"cooking_time" binding:"required,min=1,max=500"`
	Tags        []uuid.UUID         `json:"tags" binding:"required,min=1"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"required,min=1,dive"`
}

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type IngredientAmountResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeCropResponse is the short recipe view used in toggle responses and
// subscription previews.
type RecipeCropResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type RecipeResponse struct {
	ID               uuid.UUID                  `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []IngredientAmountResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	PubDate          time.Time                  `json:"pub_date"`
}

type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeCropResponse `json:"recipes"`
	RecipesCount int64                `json:"recipes_count"`
}

func toUserResponse(u *models.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toCropResponse(r *models.Recipe) RecipeCropResponse {
	return RecipeCropResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

func toRecipeResponse(r *models.Recipe, authorSubscribed, favorited, inCart bool) RecipeResponse {
	ingredients := make([]IngredientAmountResponse, 0, len(r.Ingredients))
	for _, amount := range r.Ingredients {
		item := IngredientAmountResponse{
			ID:     amount.IngredientID,
			Amount: amount.Amount,
		}
		if amount.Ingredient != nil {
			item.Name = amount.Ingredient.Name
			item.MeasurementUnit = amount.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, item)
	}
	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	var author UserResponse
	if r.Author != nil {
		author = toUserResponse(r.Author, authorSubscribed)
	}
	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
}

func toRecipeInput(req RecipeRequest) service.RecipeInput {
	ingredients := make([]service.IngredientInput, 0, len(req.Ingredients))
	for _, pair := range req.Ingredients {
		ingredients = append(ingredients, service.IngredientInput{ID: pair.ID, Amount: pair.Amount})
	}
	return service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: ingredients,
	}
}
