package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
)

// feedLimit caps how many messages the home timeline returns.
const feedLimit = 100

// FeedService composes the home timeline.
type FeedService struct {
	messages repository.MessageRepository
}

// NewFeedService creates a new feed service.
func NewFeedService(messages repository.MessageRepository) *FeedService {
	return &FeedService{messages: messages}
}

// Timeline returns up to 100 of the newest messages written by userID or
// anyone they follow.
func (s *FeedService) Timeline(ctx context.Context, userID uint) ([]*models.Message, error) {
	return s.messages.Timeline(ctx, userID, feedLimit)
}
