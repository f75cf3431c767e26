package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"postboard/internal/hash"
	"postboard/internal/logging"
	"postboard/internal/models"
	"postboard/internal/repo"
)

type UserHandler struct {
	Users *repo.UserRepo
}

// Create is admin-only (enforced at the route); unlike register it accepts
// an explicit role.
func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         req.Role,
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created successfully",
		"user":    user,
	})
}

func (h *UserHandler) List(c echo.Context) error {
	filter := repo.UserFilter{
		Firstname: c.QueryParam("firstname"),
		Lastname:  c.QueryParam("lastname"),
		Email:     c.QueryParam("email"),
	}
	if v := c.QueryParam("id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			filter.ID = uint(id)
		}
	}

	users, err := h.Users.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) ActiveInLastWeek(c echo.Context) error {
	cutoff := time.Now().AddDate(0, 0, -7)
	users, err := h.Users.ActiveSince(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.Users.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *UserHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var req struct {
		Firstname *string `json:"firstname"`
		Lastname  *string `json:"lastname"`
		Email     *string `json:"email"`
		Password  *string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Firstname != nil {
		user.Firstname = *req.Firstname
	}
	if req.Lastname != nil {
		user.Lastname = *req.Lastname
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = pwHash
	}

	if err := h.Users.Update(ctx, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "user updated successfully",
		"user":    user,
	})
}

// Delete is admin-only; the repo removes likes and posts with the user in
// one transaction.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.Users.DeleteCascade(ctx, id); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("user_deleted", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}
