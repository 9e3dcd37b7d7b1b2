package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	// GetOrCreate inserts the (user, author) relation unless it exists and reports whether a row was added.
	GetOrCreate(ctx context.Context, userID, authorID uint) (bool, error)
	// Delete removes the relation and reports whether one existed.
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) GetOrCreate(ctx context.Context, userID, authorID uint) (bool, error) {
	follow := models.Follow{UserID: userID, AuthorID: authorID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(&follow)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
