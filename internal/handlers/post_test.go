package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"postboard/internal/models"
)

func createPost(t *testing.T, env *testEnv, pair map[string]string, title string) models.Post {
	t.Helper()

	rec := env.do(http.MethodPost, "/posts", map[string]any{
		"title":        title,
		"description":  "a description",
		"is_published": true,
	}, bearer(pair))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.Post.ID)
	return resp.Post
}

func TestPostOwnershipRules(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("author@example.com", models.RoleUser)
	env.seedUser("other@example.com", models.RoleUser)
	env.seedUser("admin@example.com", models.RoleAdmin)

	authorPair := env.login("author@example.com")
	otherPair := env.login("other@example.com")
	adminPair := env.login("admin@example.com")

	post := createPost(t, env, authorPair, "my post")
	path := fmt.Sprintf("/posts/%d", post.ID)
	update := map[string]string{"title": "renamed"}

	// Non-owner: 403, distinct from 401.
	rec := env.do(http.MethodPut, path, update, bearer(otherPair))
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, code := decodeError(t, rec)
	require.Equal(t, "FORBIDDEN", code)

	// Owner: 200.
	rec = env.do(http.MethodPut, path, update, bearer(authorPair))
	require.Equal(t, http.StatusOK, rec.Code)

	// Admin short-circuits ownership: 200.
	rec = env.do(http.MethodPut, path, map[string]string{"title": "admin edit"}, bearer(adminPair))
	require.Equal(t, http.StatusOK, rec.Code)

	// Missing resource: 404, not 403.
	rec = env.do(http.MethodPut, "/posts/999", update, bearer(otherPair))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostPublishToggle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("author@example.com", models.RoleUser)
	env.seedUser("other@example.com", models.RoleUser)

	authorPair := env.login("author@example.com")
	otherPair := env.login("other@example.com")

	post := createPost(t, env, authorPair, "my post")
	require.True(t, post.IsPublished)

	rec := env.do(http.MethodPatch, "/posts/1/publish", nil, bearer(otherPair))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPatch, "/posts/1/publish", nil, bearer(authorPair))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Post.IsPublished)
}

func TestPostLikeToggleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("author@example.com", models.RoleUser)
	env.seedUser("liker@example.com", models.RoleUser)

	authorPair := env.login("author@example.com")
	likerPair := env.login("liker@example.com")

	createPost(t, env, authorPair, "likeable")

	// Anyone authenticated may like; no ownership rule here.
	rec := env.do(http.MethodPost, "/posts/1/like", nil, bearer(likerPair))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 1, resp.Post.LikeCount)

	// Second toggle removes the like.
	rec = env.do(http.MethodPost, "/posts/1/like", nil, bearer(likerPair))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 0, resp.Post.LikeCount)
}

func TestPostDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("author@example.com", models.RoleUser)
	env.seedUser("liker@example.com", models.RoleUser)

	authorPair := env.login("author@example.com")
	likerPair := env.login("liker@example.com")

	createPost(t, env, authorPair, "doomed")
	rec := env.do(http.MethodPost, "/posts/1/like", nil, bearer(likerPair))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/posts/1", nil, bearer(likerPair))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, "/posts/1", nil, bearer(authorPair))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/posts/1", nil, bearer(authorPair))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var likes int64
	require.NoError(t, env.DB.Model(&models.Like{}).Count(&likes).Error)
	require.EqualValues(t, 0, likes)
}

func TestAdminOnlyUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("user@example.com", models.RoleUser)
	env.seedUser("admin@example.com", models.RoleAdmin)

	userPair := env.login("user@example.com")
	adminPair := env.login("admin@example.com")

	newUser := map[string]string{
		"email":    "created@example.com",
		"password": "password",
	}

	rec := env.do(http.MethodPost, "/users", newUser, bearer(userPair))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/users", newUser, bearer(adminPair))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Role escalation through register is impossible: the field is ignored.
	rec = env.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    "sneaky@example.com",
		"password": "password",
		"role":     models.RoleAdmin,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.RoleUser, resp.User.Role)
}

func TestUserDeleteCascadeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	victim := env.seedUser("victim@example.com", models.RoleUser)
	env.seedUser("admin@example.com", models.RoleAdmin)

	victimPair := env.login("victim@example.com")
	adminPair := env.login("admin@example.com")

	createPost(t, env, victimPair, "victim post")

	rec := env.do(http.MethodDelete, "/users/1", nil, bearer(victimPair))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, "/users/1", nil, bearer(adminPair))
	require.Equal(t, http.StatusOK, rec.Code)

	var posts int64
	require.NoError(t, env.DB.Model(&models.Post{}).Where("user_id = ?", victim.ID).Count(&posts).Error)
	require.EqualValues(t, 0, posts)

	rec = env.do(http.MethodGet, "/users/1", nil, bearer(adminPair))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
