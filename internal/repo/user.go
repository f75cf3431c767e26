package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"postboard/internal/httperr"
	"postboard/internal/models"
)

type UserRepo struct {
	DB *gorm.DB
}

// UserFilter fields are combined with AND; zero values are ignored.
type UserFilter struct {
	ID        uint
	Firstname string
	Lastname  string
	Email     string
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return httperr.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// isDuplicate also matches on message because not every driver translates
// unique-constraint violations to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if f.ID != 0 {
		q = q.Where("id = ?", f.ID)
	}
	if f.Firstname != "" {
		q = q.Where("firstname = ?", f.Firstname)
	}
	if f.Lastname != "" {
		q = q.Where("lastname = ?", f.Lastname)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}

	var users []models.User
	if err := q.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

// DeleteCascade removes the user together with everything hanging off them:
// likes on the user's posts, the user's own likes, the user's posts, the
// user's refresh tokens, then the user row. One transaction, all or nothing.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN (?)",
			tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id),
		).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.NotFound("user not found")
		}
		return nil
	})
}

// ActiveSince returns name and email of users registered after the cutoff.
func (r *UserRepo) ActiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Select("firstname", "lastname", "email").
		Where("created_at >= ?", cutoff).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
