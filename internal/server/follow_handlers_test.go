package server

import (
	"net/http"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countFollows(t *testing.T, env *testEnv, user, author *models.User) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).Count(&n).Error)
	return n
}

func TestFollow_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	reader := testutil.CreateUser(t, env.db, "reader")
	author := testutil.CreateUser(t, env.db, "leo")

	for i := 0; i < 2; i++ {
		resp := env.get(t, "/profile/leo/follow/", reader)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	}
	assert.Equal(t, int64(1), countFollows(t, env, reader, author))

	resp := env.get(t, "/profile/leo/unfollow/", reader)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.Zero(t, countFollows(t, env, reader, author))

	// Unfollowing again changes nothing.
	resp = env.get(t, "/profile/leo/unfollow/", reader)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestFollow_SelfIsNoop(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	resp := env.get(t, "/profile/leo/follow/", user)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Zero(t, countFollows(t, env, user, user))
}

func TestFollow_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	resp := env.get(t, "/profile/ghost/follow/", user)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollow_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.get(t, "/profile/leo/follow/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/profile/leo/follow/", resp.Header.Get("Location"))

	resp = env.get(t, "/follow/", nil)
	assert.Equal(t, "/auth/login/?next=/follow/", resp.Header.Get("Location"))
}

func TestFollowIndex_Feed(t *testing.T) {
	env := newTestEnv(t)
	reader := testutil.CreateUser(t, env.db, "reader")
	lonely := testutil.CreateUser(t, env.db, "lonely")
	leo := testutil.CreateUser(t, env.db, "leo")
	other := testutil.CreateUser(t, env.db, "other")
	testutil.CreatePosts(t, env.db, leo, nil, 2)
	testutil.CreatePosts(t, env.db, other, nil, 3)

	resp := env.get(t, "/profile/leo/follow/", reader)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	feed := decode[listingBody](t, env.get(t, "/follow/", reader))
	require.Len(t, feed.PageObj.ObjectList, 2)
	for _, p := range feed.PageObj.ObjectList {
		assert.Equal(t, leo.ID, p.AuthorID)
	}

	empty := decode[listingBody](t, env.get(t, "/follow/", lonely))
	assert.Empty(t, empty.PageObj.ObjectList)
	assert.Equal(t, 1, empty.PageObj.NumPages)
}
