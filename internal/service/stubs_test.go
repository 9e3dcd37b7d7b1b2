package service

import (
	"context"
	"testing"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	pageFn    func(context.Context, repository.Listing, int, int) (pagination.Page[models.Post], error)
	countFn   func(context.Context, repository.Listing) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Page(ctx context.Context, l repository.Listing, number, perPage int) (pagination.Page[models.Post], error) {
	return s.pageFn(ctx, l, number, perPage)
}
func (s *postRepoStub) Count(ctx context.Context, l repository.Listing) (int64, error) {
	return s.countFn(ctx, l)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id, AuthorID: 1}, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		pageFn: func(_ context.Context, _ repository.Listing, n, per int) (pagination.Page[models.Post], error) {
			return pagination.New[models.Post](nil, n, 0, per), nil
		},
		countFn: func(_ context.Context, _ repository.Listing) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository keyed by username.
type userRepoStub struct {
	byName map[string]*models.User
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if _, ok := s.byName[user.Username]; ok {
		return repository.ErrUsernameTaken
	}
	user.ID = uint(len(s.byName) + 1)
	s.byName[user.Username] = user
	return nil
}
func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range s.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := s.byName[username]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", username)
}
func (s *userRepoStub) IsAdmin(_ context.Context, id uint) (bool, error) {
	for _, u := range s.byName {
		if u.ID == id {
			return u.IsAdmin, nil
		}
	}
	return false, nil
}
func (s *userRepoStub) SetAdmin(ctx context.Context, username string, admin bool) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = admin
	return u, nil
}
func (s *userRepoStub) ListAdmins(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.byName {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{byName: make(map[string]*models.User)}
	for _, u := range users {
		s.byName[u.Username] = u
	}
	return s
}

// followRepoStub records follow pairs in memory.
type followRepoStub struct {
	pairs map[[2]uint]bool
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{pairs: make(map[[2]uint]bool)}
}

func (s *followRepoStub) GetOrCreate(_ context.Context, userID, authorID uint) (bool, error) {
	k := [2]uint{userID, authorID}
	if s.pairs[k] {
		return false, nil
	}
	s.pairs[k] = true
	return true, nil
}
func (s *followRepoStub) Delete(_ context.Context, userID, authorID uint) (bool, error) {
	k := [2]uint{userID, authorID}
	existed := s.pairs[k]
	delete(s.pairs, k)
	return existed, nil
}
func (s *followRepoStub) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	return s.pairs[[2]uint{userID, authorID}], nil
}
func (s *followRepoStub) CountFollowers(_ context.Context, authorID uint) (int64, error) {
	var n int64
	for k := range s.pairs {
		if k[1] == authorID {
			n++
		}
	}
	return n, nil
}
func (s *followRepoStub) CountFollowing(_ context.Context, userID uint) (int64, error) {
	var n int64
	for k := range s.pairs {
		if k[0] == userID {
			n++
		}
	}
	return n, nil
}

// imageStoreStub hands out predictable keys and remembers removals.
type imageStoreStub struct {
	stored  []string
	removed []string
	err     error
}

func (s *imageStoreStub) StorePostImage(_ context.Context, filename string, _ []byte) (media.Stored, error) {
	if s.err != nil {
		return media.Stored{}, s.err
	}
	key := media.PostsDir + filename
	s.stored = append(s.stored, key)
	return media.Stored{Key: key}, nil
}

func (s *imageStoreStub) Remove(_ context.Context, keys ...string) {
	for _, k := range keys {
		if k != "" {
			s.removed = append(s.removed, k)
		}
	}
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	if field != "" {
		assert.Contains(t, appErr.Fields, field)
	}
}
