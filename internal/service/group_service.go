package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type GroupService struct {
	groupRepo repository.GroupRepository
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) CreateGroup(ctx context.Context, form validation.GroupForm) (*models.Group, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if fields := validation.Validate(form); fields != nil {
		return nil, models.NewFieldValidationError(fields)
	}

	group := &models.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, models.NewFieldValidationError(validation.AddError(nil, "slug", "Group with this Slug already exists."))
		}
		return nil, err
	}
	return group, nil
}
