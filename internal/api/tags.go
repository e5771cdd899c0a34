package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/service"
)

type TagRequest struct {
	Name  string `json:"name" binding:"required"`
	Slug  string `json:"slug" binding:"omitempty,tagslug"`
	Color string `json:"color" binding:"required,hexcolor6"`
}

type TagHandler struct {
	catalog service.ICatalogService
	auth    service.IAuthService
}

func NewTagHandler(catalog service.ICatalogService, auth service.IAuthService) *TagHandler {
	return &TagHandler{catalog: catalog, auth: auth}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	tags := router.Group("/tags")
	{
		tags.GET("", h.List)
		tags.GET("/:id", h.Get)
		tags.POST("", middleware.RequireAuth(h.auth), h.Create)
	}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Create(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", service.ErrInvalidInput, err))
		return
	}
	tag, err := h.catalog.CreateTag(c.Request.Context(), userID, service.TagInput{
		Name:  req.Name,
		Slug:  req.Slug,
		Color: req.Color,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}
