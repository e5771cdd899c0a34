package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
	"github.com/plateful/backend/internal/testutil"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db := testutil.NewDB(t)
	auth := service.NewAuthService(db, nil, "test-secret", time.Hour, nil)
	users := service.NewUserService(db)
	recipes := service.NewRecipeService(db, nil, nil)
	catalog := service.NewCatalogService(db)

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewAuthHandler(auth).RegisterRoutes(v1)
	NewUserHandler(users, auth).RegisterRoutes(v1)
	NewTagHandler(catalog, auth).RegisterRoutes(v1)
	NewIngredientHandler(catalog).RegisterRoutes(v1)
	NewRecipeHandler(recipes, users, auth).RegisterRoutes(v1)

	return &testApp{router: router, db: db, auth: auth}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// registerAndLogin creates an account through the API and returns its token.
func (a *testApp) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"username": username,
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "longenough",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[TokenResponse](t, w).Token
}

func TestRegisterEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "anna@example.com",
		"username": "anna",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[UserResponse](t, w)
	assert.Equal(t, "Anna", user.Username)
	assert.False(t, user.IsSubscribed)

	// the binding layer rejects the reserved username before the service
	w = app.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "me@example.com",
		"username": "me",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "anna@example.com",
		"username": "annabel",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "anna", "anna@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Anna", decode[UserResponse](t, w).Username)

	w = app.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeLifecycleEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "chef", "chef@example.com")

	tag := testutil.CreateTag(t, app.db, "Breakfast", "breakfast", "#E26C2D")
	flour := testutil.CreateIngredient(t, app.db, "Flour", "g")

	payload := gin.H{
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 20,
		"tags":         []string{tag.ID.String()},
		"ingredients":  []gin.H{{"id": flour.ID.String(), "amount": 200}},
	}

	// anonymous create is rejected
	w := app.do(t, http.MethodPost, "/api/v1/recipes", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/recipes", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[RecipeResponse](t, w)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Len(t, created.Ingredients, 1)
	assert.Equal(t, "Flour", created.Ingredients[0].Name)
	assert.False(t, created.IsFavorited)

	// anyone can read it back
	w = app.do(t, http.MethodGet, "/api/v1/recipes/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// binding rejects an out-of-range cooking time before the service runs
	bad := gin.H{}
	for k, v := range payload {
		bad[k] = v
	}
	bad["cooking_time"] = 501
	w = app.do(t, http.MethodPost, "/api/v1/recipes", token, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// another user cannot edit
	intruder := app.registerAndLogin(t, "mallory", "mallory@example.com")
	w = app.do(t, http.MethodPatch, "/api/v1/recipes/"+created.ID.String(), intruder, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodDelete, "/api/v1/recipes/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/recipes/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "chef", "chef@example.com")

	author := testutil.CreateUser(t, app.db, "author")
	recipe := testutil.CreateRecipe(t, app.db, author, "Soup", nil)
	path := "/api/v1/recipes/" + recipe.ID.String() + "/favorite"

	w := app.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	crop := decode[RecipeCropResponse](t, w)
	assert.Equal(t, "Soup", crop.Name)

	w = app.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeListFlags(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "chef", "chef@example.com")

	author := testutil.CreateUser(t, app.db, "author")
	liked := testutil.CreateRecipe(t, app.db, author, "Liked", nil)
	testutil.CreateRecipe(t, app.db, author, "Other", nil)

	w := app.do(t, http.MethodPost, "/api/v1/recipes/"+liked.ID.String()+"/favorite", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/recipes?is_favorited=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Count   int64            `json:"count"`
		Results []RecipeResponse `json:"results"`
	}](t, w)
	require.EqualValues(t, 1, page.Count)
	assert.Equal(t, "Liked", page.Results[0].Name)
	assert.True(t, page.Results[0].IsFavorited)

	// the same filter is a no-op for anonymous viewers
	w = app.do(t, http.MethodGet, "/api/v1/recipes?is_favorited=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	anon := decode[struct {
		Count int64 `json:"count"`
	}](t, w)
	assert.EqualValues(t, 2, anon.Count)

	// an unrecognized flag value does not filter either way
	w = app.do(t, http.MethodGet, "/api/v1/recipes?is_favorited=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	odd := decode[struct {
		Count int64 `json:"count"`
	}](t, w)
	assert.EqualValues(t, 2, odd.Count)
}

func TestShoppingCartDownload(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "buyer", "buyer@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	author := testutil.CreateUser(t, app.db, "author")
	flour := testutil.CreateIngredient(t, app.db, "Flour", "g")
	recipe := testutil.CreateRecipe(t, app.db, author, "Bread", map[*models.Ingredient]int{flour: 500})

	w = app.do(t, http.MethodPost, "/api/v1/recipes/"+recipe.ID.String()+"/shopping_cart", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "_shopping_list.txt")
	assert.Contains(t, w.Body.String(), "Flour: 500 g")
}

func TestSubscriptionEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "reader", "reader@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	self := decode[UserResponse](t, w)

	author := testutil.CreateUser(t, app.db, "author")
	testutil.CreateRecipe(t, app.db, author, "Soup", nil)

	w = app.do(t, http.MethodPost, "/api/v1/users/"+author.ID.String()+"/subscribe", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the subscribe body is the full subscription view, preview included
	created := decode[SubscriptionResponse](t, w)
	assert.Equal(t, "author", created.Username)
	assert.True(t, created.IsSubscribed)
	assert.EqualValues(t, 1, created.RecipesCount)
	require.Len(t, created.Recipes, 1)
	assert.Equal(t, "Soup", created.Recipes[0].Name)

	w = app.do(t, http.MethodPost, "/api/v1/users/"+self.ID.String()+"/subscribe", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "self-subscribe")

	w = app.do(t, http.MethodGet, "/api/v1/users/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Count   int64                  `json:"count"`
		Results []SubscriptionResponse `json:"results"`
	}](t, w)
	require.EqualValues(t, 1, page.Count)
	assert.Equal(t, "author", page.Results[0].Username)
	assert.True(t, page.Results[0].IsSubscribed)
	assert.EqualValues(t, 1, page.Results[0].RecipesCount)
	require.Len(t, page.Results[0].Recipes, 1)

	w = app.do(t, http.MethodDelete, "/api/v1/users/"+author.ID.String()+"/subscribe", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTagEndpoints(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateTag(t, app.db, "Breakfast", "breakfast", "#E26C2D")

	w := app.do(t, http.MethodGet, "/api/v1/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	token := app.registerAndLogin(t, "plain", "plain@example.com")
	payload := gin.H{"name": "Dinner", "color": "#49B64E"}

	w = app.do(t, http.MethodPost, "/api/v1/tags", token, payload)
	assert.Equal(t, http.StatusForbidden, w.Code, "non-staff create")

	staffToken := app.registerAndLogin(t, "admin", "admin@example.com")
	require.NoError(t, app.db.Exec("UPDATE users SET is_staff = true WHERE email = ?", "admin@example.com").Error)

	w = app.do(t, http.MethodPost, "/api/v1/tags", staffToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodPost, "/api/v1/tags", staffToken, gin.H{"name": "Lunch", "color": "not-a-color"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "binding rejects the color")
}

func TestIngredientSearch(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateIngredient(t, app.db, "Flour", "g")
	testutil.CreateIngredient(t, app.db, "Flaxseed", "g")
	testutil.CreateIngredient(t, app.db, "Sugar", "g")

	w := app.do(t, http.MethodGet, "/api/v1/ingredients?name=fl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Count int64 `json:"count"`
	}](t, w)
	assert.EqualValues(t, 2, page.Count)
}

func TestMalformedIDs(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "anna", "anna@example.com")

	for _, path := range []string{
		"/api/v1/recipes/not-a-uuid",
		"/api/v1/users/not-a-uuid",
		fmt.Sprintf("/api/v1/tags/%s", "not-a-uuid"),
	} {
		w := app.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
