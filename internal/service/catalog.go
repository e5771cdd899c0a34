package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/validation"
)

// CatalogService serves the tag and ingredient reference catalogs. Both are
// read-mostly; tags can additionally be created by staff users so the catalog
// can grow without a reseed.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// TagInput is the payload for staff tag creation. The slug is derived from
// the name when blank.
type TagInput struct {
	Name  string
	Slug  string
	Color string
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &tag, nil
}

// CreateTag adds a tag to the catalog. Staff only.
func (s *CatalogService) CreateTag(ctx context.Context, actorID uuid.UUID, in TagInput) (*models.Tag, error) {
	var actor models.User
	if err := s.db.WithContext(ctx).First(&actor, "id = ?", actorID).Error; err != nil {
		return nil, ErrPermissionDenied
	}
	if !actor.IsStaff || !actor.IsActive {
		return nil, ErrPermissionDenied
	}

	name, err := validation.Name(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: name: %s", ErrInvalidInput, err)
	}
	slugSource := in.Slug
	if slugSource == "" {
		slugSource = in.Name
	}
	slug, err := validation.Slug(slugSource)
	if err != nil {
		return nil, fmt.Errorf("%w: slug: %s", ErrInvalidInput, err)
	}
	color, err := validation.HexColor(in.Color)
	if err != nil {
		return nil, fmt.Errorf("%w: color: %s", ErrInvalidInput, err)
	}

	tag := models.Tag{Name: name, Slug: slug, Color: color}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("tag: %w", ErrAlreadyExists)
		}
		return nil, err
	}
	return &tag, nil
}

// ListIngredients returns catalog entries, optionally filtered by a
// case-insensitive name prefix.
func (s *CatalogService) ListIngredients(ctx context.Context, nameQuery string, limit, offset int) ([]models.Ingredient, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if nameQuery != "" {
		query = query.Where("LOWER(name) LIKE ?", strings.ToLower(nameQuery)+"%")
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	var ingredients []models.Ingredient
	if err := query.Order("name ASC, measurement_unit ASC").Find(&ingredients).Error; err != nil {
		return nil, 0, err
	}
	return ingredients, count, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingredient %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &ingredient, nil
}
