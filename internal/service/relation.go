package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// Relation describes a user-to-target join table so that favorites, cart
// entries and subscriptions share a single add-or-remove mechanism instead
// of three copies of the same conditional dance.
type Relation struct {
	name      string
	userCol   string
	targetCol string
	newRow    func(userID, targetID uuid.UUID) any
	model     func() any
}

var (
	FavoriteRelation = Relation{
		name:      "favorite",
		userCol:   "user_id",
		targetCol: "recipe_id",
		newRow: func(u, t uuid.UUID) any {
			return &models.Favorite{UserID: u, RecipeID: t}
		},
		model: func() any { return &models.Favorite{} },
	}

	CartRelation = Relation{
		name:      "cart entry",
		userCol:   "user_id",
		targetCol: "recipe_id",
		newRow: func(u, t uuid.UUID) any {
			return &models.CartEntry{UserID: u, RecipeID: t}
		},
		model: func() any { return &models.CartEntry{} },
	}

	FollowRelation = Relation{
		name:      "subscription",
		userCol:   "follower_id",
		targetCol: "author_id",
		newRow: func(u, t uuid.UUID) any {
			return &models.Follow{FollowerID: u, AuthorID: t}
		},
		model: func() any { return &models.Follow{} },
	}
)

// addRelation creates the join row between user and target. A row that is
// already present, or a lost race against a concurrent insert, both come back
// as ErrAlreadyExists; the unique index is the final referee.
func addRelation(ctx context.Context, db *gorm.DB, rel Relation, userID, targetID uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(rel.model()).
			Where(rel.userCol+" = ? AND "+rel.targetCol+" = ?", userID, targetID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%s: %w", rel.name, ErrAlreadyExists)
		}
		if err := tx.Create(rel.newRow(userID, targetID)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%s: %w", rel.name, ErrAlreadyExists)
			}
			return err
		}
		return nil
	})
}

// removeRelation deletes the join row; removing an absent relation is
// ErrNotFound.
func removeRelation(ctx context.Context, db *gorm.DB, rel Relation, userID, targetID uuid.UUID) error {
	res := db.WithContext(ctx).
		Where(rel.userCol+" = ? AND "+rel.targetCol+" = ?", userID, targetID).
		Delete(rel.model())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", rel.name, ErrNotFound)
	}
	return nil
}

// hasRelation reports whether the join row exists.
func hasRelation(ctx context.Context, db *gorm.DB, rel Relation, userID, targetID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(rel.model()).
		Where(rel.userCol+" = ? AND "+rel.targetCol+" = ?", userID, targetID).
		Count(&count).Error
	return count > 0, err
}
