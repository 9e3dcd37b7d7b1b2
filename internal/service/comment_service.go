package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Form     validation.CommentForm
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment attaches a comment by AuthorID to an existing post.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	in.Form.Text = strings.TrimSpace(in.Form.Text)
	if fields := validation.Validate(in.Form); fields != nil {
		return nil, models.NewFieldValidationError(fields)
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.AuthorID,
		Text:     in.Form.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
