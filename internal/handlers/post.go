package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"postboard/internal/events"
	"postboard/internal/httperr"
	"postboard/internal/logging"
	mwauth "postboard/internal/middleware/auth"
	"postboard/internal/models"
	"postboard/internal/repo"
	"postboard/internal/search"
	"postboard/internal/util"
)

type PostHandler struct {
	Posts    *repo.PostRepo
	Users    *repo.UserRepo
	Producer *events.Producer
	Search   *search.Index
}

func (h *PostHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicPostEvents, fmt.Sprint(event["post_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_failed", "error", err)
	}
}

func (h *PostHandler) index(c echo.Context, post *models.Post) {
	if h.Search == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Search.IndexPost(ctx, post); err != nil {
		logging.FromContext(c.Request().Context()).Error("search_index_failed", "post_id", post.ID, "error", err)
	}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// ownedPost loads the post and enforces the ownership rule: the author may
// mutate it, an admin may mutate anything, everyone else gets 403.
func (h *PostHandler) ownedPost(c echo.Context) (*models.Post, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return nil, httperr.ErrMissingToken
	}

	post, err := h.Posts.FindByID(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && post.UserID != ident.ID {
		return nil, httperr.Forbidden("you are not allowed to modify this post")
	}
	return post, nil
}

func (h *PostHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return httperr.ErrMissingToken
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	// The token subject may have been deleted since issuance.
	author, err := h.Users.FindByID(ctx, ident.ID)
	if err != nil {
		return err
	}

	post := models.Post{
		Title:       req.Title,
		Description: req.Description,
		IsPublished: req.IsPublished,
		UserID:      author.ID,
	}
	if err := h.Posts.Create(ctx, &post); err != nil {
		return err
	}

	h.publish(c, map[string]any{"type": "post_created", "post_id": post.ID, "user_id": post.UserID})
	h.index(c, &post)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "post created successfully",
		"post":    post,
	})
}

func (h *PostHandler) List(c echo.Context) error {
	filter := repo.PostFilter{
		Title:       c.QueryParam("title"),
		Description: c.QueryParam("description"),
	}
	if v := c.QueryParam("id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			filter.ID = uint(id)
		}
	}
	if v := c.QueryParam("userId"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			filter.UserID = uint(id)
		}
	}
	if v := c.QueryParam("isPublished"); v != "" {
		published := v == "true"
		filter.IsPublished = &published
	}

	posts, err := h.Posts.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (h *PostHandler) Latest(c echo.Context) error {
	count := 5
	if v := c.QueryParam("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}
	posts, err := h.Posts.Latest(c.Request().Context(), count)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (h *PostHandler) MostPopular(c echo.Context) error {
	minViews, err := strconv.Atoi(c.QueryParam("viewCount"))
	if err != nil || minViews < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "viewCount must be a non-negative integer")
	}
	posts, err := h.Posts.MostPopular(c.Request().Context(), uint(minViews))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (h *PostHandler) ByDate(c echo.Context) error {
	day, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	posts, err := h.Posts.ByDate(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (h *PostHandler) Unpublished(c echo.Context) error {
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return httperr.ErrMissingToken
	}
	posts, err := h.Posts.UnpublishedByUser(c.Request().Context(), ident.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (h *PostHandler) Stats(c echo.Context) error {
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return httperr.ErrMissingToken
	}
	stats, err := h.Posts.StatsByUser(c.Request().Context(), ident.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": stats})
}

func (h *PostHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	post, err := h.Posts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := h.Posts.IncrementViews(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("view_count_update_failed", "post_id", id, "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

func (h *PostHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Description != nil {
		post.Description = *req.Description
	}

	if err := h.Posts.Update(ctx, post); err != nil {
		return err
	}

	h.publish(c, map[string]any{"type": "post_updated", "post_id": post.ID, "user_id": post.UserID})
	h.index(c, post)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "post updated successfully",
		"post":    post,
	})
}

func (h *PostHandler) Publish(c echo.Context) error {
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	updated, err := h.Posts.TogglePublish(c.Request().Context(), post.ID)
	if err != nil {
		return err
	}

	verb := "unpublished"
	if updated.IsPublished {
		verb = "published"
	}
	h.publish(c, map[string]any{"type": "post_" + verb, "post_id": updated.ID, "user_id": updated.UserID})
	h.index(c, updated)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "post " + verb,
		"post":    updated,
	})
}

func (h *PostHandler) Like(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return httperr.ErrMissingToken
	}

	post, err := h.Posts.ToggleLike(c.Request().Context(), id, ident.ID)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{"type": "post_like_toggled", "post_id": post.ID, "user_id": ident.ID})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "like toggled",
		"post":    post,
	})
}

func (h *PostHandler) Delete(c echo.Context) error {
	post, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	if err := h.Posts.Delete(c.Request().Context(), post.ID); err != nil {
		return err
	}

	h.publish(c, map[string]any{"type": "post_deleted", "post_id": post.ID, "user_id": post.UserID})
	if h.Search != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Search.DeletePost(ctx, post.ID); err != nil {
			logging.FromContext(c.Request().Context()).Error("search_delete_failed", "post_id", post.ID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "post deleted successfully"})
}

func (h *PostHandler) SearchPosts(c echo.Context) error {
	if h.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, docs, err := h.Search.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "posts": docs})
}
