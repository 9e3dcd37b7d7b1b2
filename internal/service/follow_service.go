package service

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow subscribes userID to the author named username. Following yourself
// or someone already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, nil
	}

	created, err := s.followRepo.GetOrCreate(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		middleware.Logger.InfoContext(ctx, "follow created", "author_id", author.ID)
	}
	return author, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.followRepo.Delete(ctx, userID, author.ID); err != nil {
		return nil, err
	}
	return author, nil
}
