package database

import (
	"testing"

	"warbler/internal/config"
	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}

	assert.NoError(t, configurePool(db, cfg))
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "messages", "follows", "likes"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	// The follow edge pair must be unique so re-follows collide at storage.
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follower_followed"))
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_user_message"))
}
