// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// ErrNotPostAuthor is returned when someone other than the author tries to edit a post.
var ErrNotPostAuthor = errors.New("only the author can edit this post")

const invalidGroupChoice = "Select a valid choice. That choice is not one of the available choices."

// ImageStore saves and removes post images.
type ImageStore interface {
	StorePostImage(ctx context.Context, filename string, content []byte) (media.Stored, error)
	Remove(ctx context.Context, keys ...string)
}

// ImageUpload is an uploaded file taken from a multipart form.
type ImageUpload struct {
	Filename string
	Content  []byte
}

type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	comments repository.CommentRepository
	images   ImageStore
	perPage  int
}

type CreatePostInput struct {
	AuthorID uint
	Form     validation.PostForm
	Image    *ImageUpload
}

type UpdatePostInput struct {
	PostID uint
	UserID uint
	Form   validation.PostForm
	Image  *ImageUpload
}

// GroupPage is a group with one page of its posts.
type GroupPage struct {
	Group *models.Group
	Page  pagination.Page[models.Post]
}

// ProfilePage is an author with one page of their posts.
type ProfilePage struct {
	Author *models.User
	// Count is the author's total number of posts.
	Count     int64
	Following bool
	Followers int64
	Follows   int64
	Page      pagination.Page[models.Post]
}

// PostDetail is a post with its comments and the author's post count.
type PostDetail struct {
	Post     *models.Post
	Count    int64
	Comments []models.Comment
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	comments repository.CommentRepository,
	images ImageStore,
	perPage int,
) *PostService {
	if perPage <= 0 {
		perPage = 10
	}
	return &PostService{
		posts:    posts,
		groups:   groups,
		users:    users,
		follows:  follows,
		comments: comments,
		images:   images,
		perPage:  perPage,
	}
}

func (s *PostService) ListAll(ctx context.Context, page int) (pagination.Page[models.Post], error) {
	return s.posts.Page(ctx, repository.AllPosts(), page, s.perPage)
}

func (s *PostService) ListGroup(ctx context.Context, slug string, page int) (*GroupPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.Page(ctx, repository.GroupPosts(group.ID), page, s.perPage)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: group, Page: p}, nil
}

// ListProfile returns an author's posts; viewerID is zero for anonymous visitors.
func (s *PostService) ListProfile(ctx context.Context, username string, viewerID uint, page int) (*ProfilePage, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.Page(ctx, repository.AuthorPosts(author.ID), page, s.perPage)
	if err != nil {
		return nil, err
	}

	pp := &ProfilePage{Author: author, Count: p.Count, Page: p}
	if viewerID != 0 && viewerID != author.ID {
		if pp.Following, err = s.follows.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if pp.Followers, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if pp.Follows, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return pp, nil
}

// ListFeed returns posts by the authors userID follows.
func (s *PostService) ListFeed(ctx context.Context, userID uint, page int) (pagination.Page[models.Post], error) {
	return s.posts.Page(ctx, repository.FollowedPosts(userID), page, s.perPage)
}

func (s *PostService) GetDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.AuthorPosts(post.AuthorID))
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Count: count, Comments: comments}, nil
}

func (s *PostService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	groupID, err := s.cleanPostForm(ctx, &in.Form)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Form.Text,
		AuthorID: in.AuthorID,
		GroupID:  groupID,
	}
	if in.Image != nil && s.images != nil {
		stored, err := s.images.StorePostImage(ctx, in.Image.Filename, in.Image.Content)
		if err != nil {
			return nil, err
		}
		post.Image, post.ImagePreview = stored.Key, stored.PreviewKey
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.removeImages(ctx, post.Image, post.ImagePreview)
		return nil, err
	}
	observability.PostsCreated.Inc()
	return post, nil
}

// GetForEdit loads a post for its edit form, refusing anyone but the author.
func (s *PostService) GetForEdit(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetForEdit(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	groupID, err := s.cleanPostForm(ctx, &in.Form)
	if err != nil {
		return nil, err
	}

	oldImage, oldPreview := post.Image, post.ImagePreview
	post.Text = in.Form.Text
	post.GroupID = groupID
	post.Group = nil

	switch {
	case in.Image != nil && s.images != nil:
		stored, err := s.images.StorePostImage(ctx, in.Image.Filename, in.Image.Content)
		if err != nil {
			return nil, err
		}
		post.Image, post.ImagePreview = stored.Key, stored.PreviewKey
	case in.Form.ClearImage():
		post.Image, post.ImagePreview = "", ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImages(ctx, post.Image, post.ImagePreview)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.removeImages(ctx, oldImage, oldPreview)
	}
	return post, nil
}

func (s *PostService) removeImages(ctx context.Context, keys ...string) {
	if s.images != nil {
		s.images.Remove(ctx, keys...)
	}
}

// cleanPostForm trims and validates the form and resolves its group.
func (s *PostService) cleanPostForm(ctx context.Context, form *validation.PostForm) (*uint, error) {
	form.Text = strings.TrimSpace(form.Text)
	form.Group = strings.TrimSpace(form.Group)

	fields := validation.Validate(*form)
	if fields != nil {
		return nil, models.NewFieldValidationError(fields)
	}
	if form.Group == "" {
		return nil, nil
	}

	id, err := strconv.ParseUint(form.Group, 10, 64)
	if err != nil {
		return nil, models.NewFieldValidationError(validation.AddError(nil, "group", invalidGroupChoice))
	}
	group, err := s.groups.GetByID(ctx, uint(id))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewFieldValidationError(validation.AddError(nil, "group", invalidGroupChoice))
		}
		return nil, err
	}
	return &group.ID, nil
}
