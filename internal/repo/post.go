package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"postboard/internal/httperr"
	"postboard/internal/models"
)

type PostRepo struct {
	DB *gorm.DB
}

// PostFilter: Title and Description match as substrings, the rest as
// equality. Zero values are ignored; IsPublished is a pointer so "filter on
// false" stays expressible.
type PostFilter struct {
	ID          uint
	Title       string
	Description string
	UserID      uint
	IsPublished *bool
}

type PostStats struct {
	TotalPosts   int64      `json:"total_posts"`
	LastPostDate *time.Time `json:"last_post_date,omitempty"`
}

func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PostRepo) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("post not found")
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) List(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := r.DB.WithContext(ctx).Model(&models.Post{})
	if f.ID != 0 {
		q = q.Where("id = ?", f.ID)
	}
	if f.Title != "" {
		q = q.Where("title LIKE ?", "%"+f.Title+"%")
	}
	if f.Description != "" {
		q = q.Where("description LIKE ?", "%"+f.Description+"%")
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.IsPublished != nil {
		q = q.Where("is_published = ?", *f.IsPublished)
	}

	var posts []models.Post
	if err := q.Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) Latest(ctx context.Context, count int) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(count).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) MostPopular(ctx context.Context, minViews uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).
		Where("view_count >= ?", minViews).
		Order("view_count DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ByDate returns posts created on the given calendar day.
func (r *PostRepo) ByDate(ctx context.Context, day time.Time) ([]models.Post, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	var posts []models.Post
	err := r.DB.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) UnpublishedByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_published = ?", userID, false).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) StatsByUser(ctx context.Context, userID uint) (*PostStats, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	stats := PostStats{TotalPosts: total}
	if total > 0 {
		var last models.Post
		if err := r.DB.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			First(&last).Error; err != nil {
			return nil, err
		}
		stats.LastPostDate = &last.CreatedAt
	}
	return &stats, nil
}

func (r *PostRepo) Update(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *PostRepo) TogglePublish(ctx context.Context, id uint) (*models.Post, error) {
	post, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.IsPublished = !post.IsPublished
	if err := r.DB.WithContext(ctx).Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleLike flips the (user, post) like row and the denormalized counter in
// one transaction. The delete's affected-row count decides the direction, so
// two concurrent toggles cannot both remove the same row; the unique pair
// index stops double inserts. The counter always equals the live row count.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, error) {
	var post models.Post
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("post not found")
			}
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count - ?", 1)).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
				return err
			}
		}

		return tx.First(&post, postID).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes the post and its likes as one unit.
func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.NotFound("post not found")
		}
		return nil
	})
}

// IncrementViews bumps the denormalized view counter; read paths call it
// best-effort.
func (r *PostRepo) IncrementViews(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}
