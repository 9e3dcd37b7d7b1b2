package repository

import (
	"context"
	"errors"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// ErrUsernameTaken is returned when a signup collides with an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
	SetAdmin(ctx context.Context, username string, admin bool) (*models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("is_admin").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return user.IsAdmin, nil
}

// SetAdmin grants or revokes the staff flag of the named user.
func (r *userRepository) SetAdmin(ctx context.Context, username string, admin bool) (*models.User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin == admin {
		return user, nil
	}
	if err := r.db.WithContext(ctx).Model(user).Update("is_admin", admin).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("username").Find(&admins).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}
