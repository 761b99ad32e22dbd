package repository

import (
	"context"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Message, error)
	GetByUserID(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Message, error)
	Delete(ctx context.Context, id uint) error
	Timeline(ctx context.Context, viewerID uint, limit int) ([]*models.Message, error)
	LikedMessages(ctx context.Context, userID, viewerID uint) ([]*models.Message, error)
}

// messageRepository implements MessageRepository
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// applyMessageDetails projects the Liked flag for the viewing user onto each
// selected message. Viewer 0 (anonymous) likes nothing.
func applyMessageDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.
		Select("messages.*, EXISTS(SELECT 1 FROM likes WHERE likes.message_id = messages.id AND likes.user_id = ?) AS liked", viewerID).
		Preload("User")
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Message, error) {
	var message models.Message
	err := applyMessageDetails(r.db.WithContext(ctx), viewerID).
		First(&message, "messages.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

func (r *messageRepository) GetByUserID(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := applyMessageDetails(r.db.WithContext(ctx), viewerID).
		Where("messages.user_id = ?", userID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// Delete removes the message and its likes in one transaction.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Timeline returns the newest messages written by the viewer or anyone the
// viewer follows.
func (r *messageRepository) Timeline(ctx context.Context, viewerID uint, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	followedIDs := r.db.Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", viewerID)

	err := applyMessageDetails(r.db.WithContext(ctx), viewerID).
		Where("messages.user_id IN (?) OR messages.user_id = ?", followedIDs, viewerID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// LikedMessages returns the messages userID has liked, newest like first,
// with the Liked flag computed for viewerID.
func (r *messageRepository) LikedMessages(ctx context.Context, userID, viewerID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := applyMessageDetails(r.db.WithContext(ctx), viewerID).
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC, likes.id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
