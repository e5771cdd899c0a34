package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

type RecipeHandler struct {
	recipes service.IRecipeService
	users   service.IUserService
	auth    service.IAuthService
}

func NewRecipeHandler(recipes service.IRecipeService, users service.IUserService, auth service.IAuthService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, users: users, auth: auth}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(h.auth), h.List)
		recipes.GET("/download_shopping_cart", middleware.RequireAuth(h.auth), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuth(h.auth), h.Get)
		recipes.POST("", middleware.RequireAuth(h.auth), h.Create)
		recipes.PATCH("/:id", middleware.RequireAuth(h.auth), h.Update)
		recipes.DELETE("/:id", middleware.RequireAuth(h.auth), h.Delete)
		recipes.POST("/:id/favorite", middleware.RequireAuth(h.auth), h.Favorite)
		recipes.DELETE("/:id/favorite", middleware.RequireAuth(h.auth), h.Unfavorite)
		recipes.POST("/:id/shopping_cart", middleware.RequireAuth(h.auth), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.RequireAuth(h.auth), h.RemoveFromCart)
	}
}

func (h *RecipeHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	viewer := optionalUserID(c)

	filter := service.RecipeFilter{
		TagSlugs: c.QueryArray("tags"),
		UserID:   viewer,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			respondError(c, fmt.Errorf("%w: malformed author id", service.ErrInvalidInput))
			return
		}
		filter.AuthorID = &authorID
	}
	filter.Favorited = flagParam(c, "is_favorited")
	filter.InCart = flagParam(c, "is_in_shopping_cart")

	recipes, count, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.serializeRecipes(c, viewer, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, count, page, limit, results))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.serializeRecipes(c, optionalUserID(c), []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) Create(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", service.ErrInvalidInput, err))
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), userID, toRecipeInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.serializeRecipes(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, results[0])
}

func (h *RecipeHandler) Update(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", service.ErrInvalidInput, err))
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), userID, id, toRecipeInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.serializeRecipes(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addRelation(c, h.recipes.Favorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeRelation(c, h.recipes.Unfavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFromCart)
}

// DownloadShoppingCart streams the aggregated shopping list as an attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := currentUserID(c)
	items, err := h.recipes.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, body := service.RenderShoppingList(user, items)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)) {
	userID, _ := currentUserID(c)
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := add(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCropResponse(recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	userID, _ := currentUserID(c)
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := remove(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// serializeRecipes resolves the viewer-dependent flags in bulk and maps the
// recipes to their response form.
func (h *RecipeHandler) serializeRecipes(c *gin.Context, viewer *uuid.UUID, recipes []models.Recipe) ([]RecipeResponse, error) {
	ids := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for i := range recipes {
		ids = append(ids, recipes[i].ID)
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, inCart, err := h.recipes.RelationFlags(c.Request.Context(), viewer, ids)
	if err != nil {
		return nil, err
	}
	subscribed := map[uuid.UUID]bool{}
	if viewer != nil && len(authorIDs) > 0 {
		if subscribed, err = h.users.SubscribedSet(c.Request.Context(), *viewer, authorIDs); err != nil {
			return nil, err
		}
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		results = append(results, toRecipeResponse(r, subscribed[r.AuthorID], favorited[r.ID], inCart[r.ID]))
	}
	return results, nil
}
