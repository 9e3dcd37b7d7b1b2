package repository

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Page(ctx context.Context, listing Listing, number, perPage int) (pagination.Page[models.Post], error)
	Count(ctx context.Context, listing Listing) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Update writes the editable fields of post, including clearing group or image.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("Text", "GroupID", "Image", "ImagePreview").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context, listing Listing) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(listing.Scope).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Page counts the listing, clamps number into range and fetches that page newest first.
func (r *postRepository) Page(ctx context.Context, listing Listing, number, perPage int) (pagination.Page[models.Post], error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Page", "posts",
		attribute.String("yatube.listing", listing.String()),
		attribute.Int("yatube.page.requested", number),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("page", "posts")()

	count, err := r.Count(ctx, listing)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}

	number = pagination.Clamp(number, count, perPage)
	var posts []models.Post
	if count > 0 {
		err = r.db.WithContext(ctx).
			Scopes(listing.Scope, newestFirst).
			Preload("Author").
			Preload("Group").
			Limit(perPage).
			Offset(pagination.Offset(number, perPage)).
			Find(&posts).Error
		if err != nil {
			return pagination.Page[models.Post]{}, models.NewInternalError(err)
		}
	}

	return pagination.New(posts, number, count, perPage), nil
}
