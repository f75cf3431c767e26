package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"postboard/internal/httperr"
	"postboard/internal/models"
)

// TokenRepo keeps at most one live refresh record per (user, class) pair.
// No history: overwriting is the rotation point.
type TokenRepo struct {
	DB *gorm.DB
}

// Upsert unconditionally replaces the record for (userID, class). Used on
// login, where any outstanding refresh token is discarded.
func (r *TokenRepo) Upsert(ctx context.Context, userID uint, class, sigHash string, expiresAt *time.Time) (*models.RefreshToken, error) {
	record := models.RefreshToken{
		UserID:        userID,
		Class:         class,
		SignatureHash: sigHash,
		ExpiresAt:     expiresAt,
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "class"}},
			DoUpdates: clause.AssignmentColumns([]string{"signature_hash", "expires_at", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Rotate replaces oldHash with newHash only if oldHash is still the stored
// value. A concurrent rotation wins the row first and the loser observes
// ErrStaleRefreshToken; this is the replay defense for double refresh.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint, class, oldHash, newHash string, expiresAt *time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND class = ? AND signature_hash = ?", userID, class, oldHash).
		Updates(map[string]any{"signature_hash": newHash, "expires_at": expiresAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrStaleRefreshToken
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, userID uint, class string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND class = ?", userID, class).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Delete revokes the pair's record; outstanding tokens become unusable even
// though they still verify cryptographically.
func (r *TokenRepo) Delete(ctx context.Context, userID uint, class string) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND class = ?", userID, class).
		Delete(&models.RefreshToken{}).Error
}
