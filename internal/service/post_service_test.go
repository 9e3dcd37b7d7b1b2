package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"
	"yatube/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostService(t *testing.T, db *gorm.DB, images ImageStore) *PostService {
	t.Helper()
	return NewPostService(
		repository.NewPostRepository(db),
		repository.NewGroupRepository(db),
		repository.NewUserRepository(db),
		repository.NewFollowRepository(db),
		repository.NewCommentRepository(db),
		images,
		10,
	)
}

func TestPostService_Listings(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "auth")
	reader := testutil.CreateUser(t, db, "reader")
	group := testutil.CreateGroup(t, db, "test-slug")
	testutil.CreatePosts(t, db, author, group, 13)
	svc := newPostService(t, db, &imageStoreStub{})

	all, err := svc.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	gp, err := svc.ListGroup(ctx, "test-slug", 1)
	require.NoError(t, err)
	assert.Equal(t, group.ID, gp.Group.ID)
	assert.Len(t, gp.Page.Items, 10)

	_, err = svc.ListGroup(ctx, "missing", 1)
	assert.True(t, models.IsNotFound(err))

	profile, err := svc.ListProfile(ctx, "auth", reader.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(13), profile.Count)
	assert.False(t, profile.Following)

	feed, err := svc.ListFeed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)

	_, err = repository.NewFollowRepository(db).GetOrCreate(ctx, reader.ID, author.ID)
	require.NoError(t, err)

	profile, err = svc.ListProfile(ctx, "auth", reader.ID, 1)
	require.NoError(t, err)
	assert.True(t, profile.Following)
	assert.Equal(t, int64(1), profile.Followers)
	assert.Zero(t, profile.Follows)

	feed, err = svc.ListFeed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Len(t, feed.Items, 10)

	_, err = svc.ListProfile(ctx, "ghost", 0, 1)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_CreatePost(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "auth")
	group := testutil.CreateGroup(t, db, "g")
	images := &imageStoreStub{}
	svc := newPostService(t, db, images)

	post, err := svc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID,
		Form:     validation.PostForm{Text: " Новый пост ", Group: strconv.Itoa(int(group.ID))},
		Image:    &ImageUpload{Filename: "small.gif", Content: testutil.SmallGIF},
	})
	require.NoError(t, err)
	assert.Equal(t, "Новый пост", post.Text)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	assert.Equal(t, "posts/small.gif", post.Image)

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Form: validation.PostForm{Text: ""}})
	assertValidationError(t, err, "text")

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Form: validation.PostForm{Text: "x", Group: "999"}})
	assertValidationError(t, err, "group")

	images.err = models.NewFieldValidationError(map[string][]string{"image": {"bad"}})
	_, err = svc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID,
		Form:     validation.PostForm{Text: "x"},
		Image:    &ImageUpload{Filename: "a.txt", Content: []byte("nope")},
	})
	assertValidationError(t, err, "image")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostService_UpdatePost(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "auth")
	other := testutil.CreateUser(t, db, "other")
	group := testutil.CreateGroup(t, db, "g")
	post := testutil.CreatePosts(t, db, author, group, 1)[0]
	require.NoError(t, db.Model(&post).Update("image", "posts/old.gif").Error)
	images := &imageStoreStub{}
	svc := newPostService(t, db, images)

	_, err := svc.GetForEdit(ctx, post.ID, other.ID)
	assert.True(t, errors.Is(err, ErrNotPostAuthor))

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: post.ID, UserID: other.ID, Form: validation.PostForm{Text: "hijack"}})
	assert.ErrorIs(t, err, ErrNotPostAuthor)

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{
		PostID: post.ID,
		UserID: author.ID,
		Form:   validation.PostForm{Text: "Изменённый", ImageClear: "on"},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.GroupID)
	assert.Empty(t, updated.Image)
	assert.Equal(t, []string{"posts/old.gif"}, images.removed)

	detail, err := svc.GetDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Изменённый", detail.Post.Text)
	assert.Equal(t, author.ID, detail.Post.AuthorID)
	assert.Equal(t, int64(1), detail.Count)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: 12345, UserID: author.ID, Form: validation.PostForm{Text: "x"}})
	assert.True(t, models.IsNotFound(err))
}

func TestGroupService_CreateGroup(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	svc := NewGroupService(repository.NewGroupRepository(db))

	g, err := svc.CreateGroup(ctx, validation.GroupForm{Title: "Cats", Slug: "cats"})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)

	_, err = svc.CreateGroup(ctx, validation.GroupForm{Title: "Cats again", Slug: "cats"})
	assertValidationError(t, err, "slug")

	_, err = svc.CreateGroup(ctx, validation.GroupForm{Title: "Bad", Slug: "Bad Slug"})
	assertValidationError(t, err, "slug")
}
