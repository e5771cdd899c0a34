package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/service"
)

type UserHandler struct {
	users service.IUserService
	auth  service.IAuthService
}

func NewUserHandler(users service.IUserService, auth service.IAuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", middleware.OptionalAuth(h.auth), h.List)
		users.GET("/me", middleware.RequireAuth(h.auth), h.Me)
		users.GET("/subscriptions", middleware.RequireAuth(h.auth), h.Subscriptions)
		users.GET("/:id", middleware.OptionalAuth(h.auth), h.Get)
		users.POST("/:id/subscribe", middleware.RequireAuth(h.auth), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.RequireAuth(h.auth), h.Unsubscribe)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	users, count, err := h.users.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}

	subscribed := map[uuid.UUID]bool{}
	if viewer := optionalUserID(c); viewer != nil {
		ids := make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if subscribed, err = h.users.SubscribedSet(c.Request.Context(), *viewer, ids); err != nil {
			respondError(c, err)
			return
		}
	}

	results := make([]UserResponse, 0, len(users))
	for i := range users {
		results = append(results, toUserResponse(&users[i], subscribed[users[i].ID]))
	}
	c.JSON(http.StatusOK, paginate(c, count, page, limit, results))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	isSubscribed := false
	if viewer := optionalUserID(c); viewer != nil {
		if isSubscribed, err = h.users.IsSubscribed(c.Request.Context(), *viewer, id); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toUserResponse(user, isSubscribed))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user, false))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, _ := currentUserID(c)
	authorID, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.users.Subscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.users.SubscriptionView(c.Request.Context(), authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscriptionResponse(view))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, _ := currentUserID(c)
	authorID, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists followed authors with a recipe preview per author.
func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := currentUserID(c)
	page, limit := pageParams(c)
	subs, count, err := h.users.Subscriptions(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		results = append(results, toSubscriptionResponse(&subs[i]))
	}
	c.JSON(http.StatusOK, paginate(c, count, page, limit, results))
}

func toSubscriptionResponse(sub *service.Subscription) SubscriptionResponse {
	recipes := make([]RecipeCropResponse, 0, len(sub.Recipes))
	for i := range sub.Recipes {
		recipes = append(recipes, toCropResponse(&sub.Recipes[i]))
	}
	return SubscriptionResponse{
		UserResponse: toUserResponse(&sub.Author, true),
		Recipes:      recipes,
		RecipesCount: sub.RecipesCount,
	}
}
