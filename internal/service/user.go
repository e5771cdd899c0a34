package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// UserService handles user listing and the subscription toggle.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// SubscriptionPreviewLimit caps how many crop-view recipes a subscription
// listing shows per author.
const SubscriptionPreviewLimit = 3

// Subscription is one entry of the subscriptions listing: the followed
// author, a short preview of their recipes and the full recipe count.
type Subscription struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// List returns a page of users ordered by username, with the total count.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Order("username ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// Subscribe makes follower follow the author and returns the author for the
// subscription-view response. Self-subscription is rejected before any
// lookups; a duplicate subscription is ErrAlreadyExists.
func (s *UserService) Subscribe(ctx context.Context, followerID, authorID uuid.UUID) (*models.User, error) {
	if followerID == authorID {
		return nil, ErrSelfSubscribe
	}
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := addRelation(ctx, s.db, FollowRelation, followerID, authorID); err != nil {
		return nil, err
	}
	return author, nil
}

// Unsubscribe removes the follow relation; absent target or relation is
// ErrNotFound.
func (s *UserService) Unsubscribe(ctx context.Context, followerID, authorID uuid.UUID) error {
	if followerID == authorID {
		return ErrSelfSubscribe
	}
	if _, err := s.Get(ctx, authorID); err != nil {
		return err
	}
	return removeRelation(ctx, s.db, FollowRelation, followerID, authorID)
}

// IsSubscribed reports whether follower follows author.
func (s *UserService) IsSubscribed(ctx context.Context, followerID, authorID uuid.UUID) (bool, error) {
	return hasRelation(ctx, s.db, FollowRelation, followerID, authorID)
}

// SubscribedSet returns the subset of authorIDs the user follows.
func (s *UserService) SubscribedSet(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool)
	if len(authorIDs) == 0 {
		return set, nil
	}
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND author_id IN ?", userID, authorIDs).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}
	for _, f := range follows {
		set[f.AuthorID] = true
	}
	return set, nil
}

// SubscriptionView assembles the subscription entry for a single author:
// the author, the recipe preview and the full recipe count. Used for the
// subscribe response body.
func (s *UserService) SubscriptionView(ctx context.Context, authorID uuid.UUID) (*Subscription, error) {
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	previews, counts, err := s.recipePreviews(ctx, []uuid.UUID{authorID})
	if err != nil {
		return nil, err
	}
	return &Subscription{
		Author:       *author,
		Recipes:      previews[authorID],
		RecipesCount: counts[authorID],
	}, nil
}

// Subscriptions lists the authors the user follows, each with a recipe
// preview and count, ordered by author username.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Subscription, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?)", s.db.Model(&models.Follow{}).
			Select("author_id").
			Where("follower_id = ?", userID)).
		Session(&gorm.Session{})

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("username ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	var authors []models.User
	if err := query.Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	authorIDs := make([]uuid.UUID, 0, len(authors))
	for _, author := range authors {
		authorIDs = append(authorIDs, author.ID)
	}
	previews, counts, err := s.recipePreviews(ctx, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	subs := make([]Subscription, 0, len(authors))
	for _, author := range authors {
		subs = append(subs, Subscription{
			Author:       author,
			Recipes:      previews[author.ID],
			RecipesCount: counts[author.ID],
		})
	}
	return subs, count, nil
}

// recipePreviews loads, in two queries regardless of author count, the
// newest recipes (capped at SubscriptionPreviewLimit) and the recipe count
// per author.
func (s *UserService) recipePreviews(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID][]models.Recipe, map[uuid.UUID]int64, error) {
	previews := make(map[uuid.UUID][]models.Recipe)
	counts := make(map[uuid.UUID]int64)
	if len(authorIDs) == 0 {
		return previews, counts, nil
	}

	var totals []struct {
		AuthorID uuid.UUID
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&totals).Error
	if err != nil {
		return nil, nil, err
	}
	for _, row := range totals {
		counts[row.AuthorID] = row.Total
	}

	ranked := s.db.Model(&models.Recipe{}).
		Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY pub_date DESC) AS rn").
		Where("author_id IN ?", authorIDs)
	var recipes []models.Recipe
	err = s.db.WithContext(ctx).Table("(?) AS ranked", ranked).
		Where("ranked.rn <= ?", SubscriptionPreviewLimit).
		Order("ranked.pub_date DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, nil, err
	}
	for _, recipe := range recipes {
		previews[recipe.AuthorID] = append(previews[recipe.AuthorID], recipe)
	}
	return previews, counts, nil
}
