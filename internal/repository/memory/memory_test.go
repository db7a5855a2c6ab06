package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepthoughts/thoughts-server/internal/models"
	"github.com/deepthoughts/thoughts-server/internal/repository"
	"github.com/deepthoughts/thoughts-server/internal/repository/repotest"
)

func TestConformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (repository.UserRepository, repository.ThoughtRepository) {
		s := NewStore()
		return s.Users(), s.Thoughts()
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := s.Users()

	u := &models.User{Username: "ana", Email: "ana@example.com", CreatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.FriendIDs = append(got.FriendIDs, "intruder")
	got.Username = "mallory"

	again, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", again.Username)
	assert.Empty(t, again.FriendIDs)
}
