// Package testutil provides shared fixtures for unit tests: an in-memory
// sqlite database migrated to the full schema, and factory helpers for the
// common entities.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/internal/models"
)

// NewDB opens an in-memory sqlite database with all tables migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.IngredientAmount{},
		&models.Favorite{},
		&models.CartEntry{},
		&models.Follow{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		FirstName:    username,
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug, color string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: color}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ing
}

// CreateRecipe inserts a recipe with the given ingredient amounts, bypassing
// the service layer.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, amounts map[*models.Ingredient]int) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "test recipe",
		CookingTime: 30,
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	for ing, amount := range amounts {
		row := &models.IngredientAmount{
			RecipeID:     recipe.ID,
			IngredientID: ing.ID,
			Amount:       amount,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("link ingredient %s: %v", ing.Name, err)
		}
	}
	return recipe
}

// AddToCart puts a recipe into the user's cart directly.
func AddToCart(t *testing.T, db *gorm.DB, userID, recipeID uuid.UUID) {
	t.Helper()
	if err := db.Create(&models.CartEntry{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		t.Fatalf("add cart entry: %v", err)
	}
}
