package repository

import (
	"context"
	"time"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Toggle flips the like state for (userID, messageID) and reports the
	// resulting state: true if the message is now liked.
	Toggle(ctx context.Context, userID, messageID uint) (bool, error)
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
}

// likeRepository implements LikeRepository
type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle runs delete-then-insert inside a transaction so concurrent toggles
// for the same pair settle on a single row or none, never duplicates.
func (r *likeRepository) Toggle(ctx context.Context, userID, messageID uint) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND message_id = ?", userID, messageID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Exec(
			`INSERT INTO likes (user_id, message_id, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id, message_id) DO NOTHING`,
			userID, messageID, time.Now().UTC(),
		).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
