package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plateful/backend/internal/service"
)

type IngredientHandler struct {
	catalog service.ICatalogService
}

func NewIngredientHandler(catalog service.ICatalogService) *IngredientHandler {
	return &IngredientHandler{catalog: catalog}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("", h.List)
		ingredients.GET("/:id", h.Get)
	}
}

// List supports ?name= prefix search for the recipe-form autocomplete.
func (h *IngredientHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	ingredients, count, err := h.catalog.ListIngredients(c.Request.Context(), c.Query("name"), limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, count, page, limit, ingredients))
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ingredient, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}
