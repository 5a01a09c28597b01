package utils

import (
	"fmt"
	"testing"

	"quizapp/backend/config"
	"quizapp/backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedExperimenter(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBName:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := InitDB(cfg)
	require.NoError(t, err)

	require.NoError(t, SeedExperimenter(db, cfg), "nothing configured")

	cfg.ExperimenterUsername = "prof"
	assert.Error(t, SeedExperimenter(db, cfg), "email and password are required")

	cfg.ExperimenterEmail = "prof@example.com"
	cfg.ExperimenterPassword = "password123"
	require.NoError(t, SeedExperimenter(db, cfg))
	require.NoError(t, SeedExperimenter(db, cfg))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleExperimenter, users[0].Role)

	require.NoError(t, db.Model(&users[0]).Update("role", models.RoleParticipant).Error)
	require.NoError(t, SeedExperimenter(db, cfg))
	var user models.User
	require.NoError(t, db.First(&user, users[0].ID).Error)
	assert.Equal(t, models.RoleExperimenter, user.Role)
}
