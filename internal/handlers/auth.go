package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"postboard/internal/events"
	"postboard/internal/hash"
	"postboard/internal/httperr"
	"postboard/internal/logging"
	mwauth "postboard/internal/middleware/auth"
	"postboard/internal/models"
	"postboard/internal/repo"
	"postboard/internal/session"
)

type AuthHandler struct {
	Users    *repo.UserRepo
	Sessions *session.Manager
	Producer *events.Producer
}

func (h *AuthHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, topic, fmt.Sprint(event["user_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_failed", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		l.Warn("register_failed", "reason", "email taken")
		return httperr.ErrDuplicateEmail
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return err
	}

	user := models.User{
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		return err
	}

	h.publish(c, events.TopicUserEvents, map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, user, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.publish(c, events.TopicUserEvents, map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, claims, ok := mwauth.RefreshFrom(c)
	if !ok {
		// Route wired without the refresh guard.
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh guard missing")
	}

	pair, err := h.Sessions.Refresh(c.Request().Context(), raw, claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ident, ok := mwauth.IdentityFrom(c)
	if !ok {
		return httperr.ErrMissingToken
	}

	if err := h.Sessions.Logout(c.Request().Context(), ident.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
