package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// Seeder orchestrates demo-data generation.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	r       *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	// #nosec G404: acceptable for seeding
	return &Seeder{
		db:      db,
		factory: NewFactory(db),
		r:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data, edge tables first.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []any{
		&models.Like{},
		&models.Follow{},
		&models.Message{},
		&models.User{},
	} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
	}
	return nil
}

// SeedSocialMesh creates numUsers accounts and wires a follow graph where
// each user follows a random handful of others.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	edges := 0
	for _, follower := range users {
		count := 1 + s.r.Intn(8)
		for j := 0; j < count; j++ {
			followed := users[s.r.Intn(len(users))]
			if followed.ID == follower.ID {
				continue
			}
			if err := s.factory.CreateFollow(follower, followed); err != nil {
				// Duplicate edge from random selection, skip it.
				continue
			}
			edges++
		}
	}
	log.Printf("Created %d follow edges", edges)

	return users, nil
}

// SeedEngagement writes numMessages messages from random users and sprinkles
// likes from non-authors.
func (s *Seeder) SeedEngagement(users []*models.User, numMessages int) ([]*models.Message, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to seed messages for")
	}

	messages := make([]*models.Message, 0, numMessages)
	for i := 0; i < numMessages; i++ {
		author := users[s.r.Intn(len(users))]
		message, err := s.factory.CreateMessage(author)
		if err != nil {
			return nil, fmt.Errorf("failed to create message %d: %w", i, err)
		}
		messages = append(messages, message)
	}
	log.Printf("Created %d messages", len(messages))

	likes := 0
	for _, message := range messages {
		count := s.r.Intn(5)
		for j := 0; j < count; j++ {
			liker := users[s.r.Intn(len(users))]
			if liker.ID == message.UserID {
				continue
			}
			if err := s.factory.CreateLike(liker, message); err != nil {
				continue
			}
			likes++
		}
	}
	log.Printf("Created %d likes", likes)

	return messages, nil
}
