package server

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestLikeUnlikeFlow(t *testing.T) {
	env := newTestEnv(t)
	_, authorToken := env.register(t)
	_, fanToken := env.register(t)
	postID := env.createPost(t, authorToken, "first post")
	likePath := fmt.Sprintf("/posts/%d/like/", postID)
	unlikePath := fmt.Sprintf("/posts/%d/unlike/", postID)

	status, body := env.do(t, http.MethodPost, likePath, "", nil)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)

	status, body = env.do(t, http.MethodPost, likePath, fanToken, nil)
	assert.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodPost, likePath, fanToken, nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeStateConflict, status, body)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/posts/%d", postID), fanToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "likes_count").Int())
	assert.True(t, gjson.GetBytes(body, "liked").Bool())

	status, body = env.do(t, http.MethodPost, unlikePath, fanToken, nil)
	assert.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodPost, unlikePath, fanToken, nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeStateConflict, status, body)

	status, body = env.do(t, http.MethodPost, "/posts/9999/like/", fanToken, nil)
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)

	// The notification outlives the unlike and is visible only to its recipient.
	status, body = env.do(t, http.MethodGet, "/notifications/", authorToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "count").Int())
	assert.Equal(t, "liked", gjson.GetBytes(body, "results.0.verb").String())

	status, body = env.do(t, http.MethodGet, "/notifications/", fanToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), gjson.GetBytes(body, "count").Int())

	status, body = env.do(t, http.MethodGet, "/notifications/", "", nil)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)
}

func TestConcurrentLikesCreateOneNotification(t *testing.T) {
	env := newTestEnv(t)
	_, authorToken := env.register(t)
	_, fanToken := env.register(t)
	postID := env.createPost(t, authorToken, "popular")
	likePath := fmt.Sprintf("/posts/%d/like/", postID)

	const workers = 6
	statuses := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _ = env.do(t, http.MethodPost, likePath, fanToken, nil)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		if s == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusBadRequest, s)
		}
	}
	assert.Equal(t, 1, created)

	_, body := env.do(t, http.MethodGet, "/notifications/", authorToken, nil)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "count").Int())
}

func TestFollowUnfollowFlow(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t)
	bobID, bobToken := env.register(t)
	followBob := fmt.Sprintf("/follow/%d/", bobID)
	unfollowBob := fmt.Sprintf("/unfollow/%d", bobID)

	status, body := env.do(t, http.MethodPost, fmt.Sprintf("/follow/%d/", aliceID), aliceToken, nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)

	status, body = env.do(t, http.MethodPost, followBob, aliceToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, int64(1), gjson.GetBytes(body, "user.followers_count").Int())

	status, body = env.do(t, http.MethodPost, followBob, aliceToken, nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeStateConflict, status, body)

	// Bob's feed is empty; Alice sees Bob's posts.
	env.createPost(t, bobToken, "from bob")
	_, body = env.do(t, http.MethodGet, "/feed/", aliceToken, nil)
	assert.Len(t, gjson.ParseBytes(body).Array(), 1)
	_, body = env.do(t, http.MethodGet, "/feed/", bobToken, nil)
	assert.Len(t, gjson.ParseBytes(body).Array(), 0)

	_, body = env.do(t, http.MethodGet, fmt.Sprintf("/users/%d/followers/", bobID), "", nil)
	assert.Equal(t, int64(aliceID), gjson.GetBytes(body, "0.id").Int())

	status, body = env.do(t, http.MethodPost, unfollowBob, aliceToken, nil)
	assert.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodPost, unfollowBob, aliceToken, nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeStateConflict, status, body)

	status, body = env.do(t, http.MethodPost, "/follow/4242/", aliceToken, nil)
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)

	status, body = env.do(t, http.MethodPost, followBob, "", nil)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)
}
