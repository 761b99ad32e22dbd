// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample user. All seeded users share
// the password "password123". Optional override functions may modify the
// generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	user := &models.User{
		Username:       gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:          gofakeit.Email(),
		Password:       string(hashed),
		Bio:            gofakeit.Sentence(10),
		Location:       gofakeit.City(),
		ImageURL:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		HeaderImageURL: models.DefaultHeaderImageURL,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateMessage constructs and persists a short message for the given user
// with a realistic created_at spread over the past 90 days.
func (f *Factory) CreateMessage(user *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	text := gofakeit.Sentence(8)
	if len(text) > models.MaxMessageLength {
		text = text[:models.MaxMessageLength]
	}

	daysBack := f.r.Intn(90)
	hoursBack := f.r.Intn(24)
	minsBack := f.r.Intn(60)

	message := &models.Message{
		Text:      text,
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// CreateFollow persists a follow edge from follower to followed.
func (f *Factory) CreateFollow(follower, followed *models.User) error {
	follow := &models.Follow{
		FollowerID: follower.ID,
		FollowedID: followed.ID,
	}
	return f.db.Create(follow).Error
}

// CreateLike persists a like from user on message.
func (f *Factory) CreateLike(user *models.User, message *models.Message) error {
	like := &models.Like{
		UserID:    user.ID,
		MessageID: message.ID,
	}
	return f.db.Create(like).Error
}
