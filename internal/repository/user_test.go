package repository_test

import (
	"testing"

	"github.com/squadbid/backend/internal/repository"
	"github.com/squadbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_userRepository_CheckAndSettle(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	repo := repository.NewUserRepository()

	require.NoError(t, repo.CheckAndSettle(ctx, testutil.User1.ID, 400))

	user, err := repo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance-400, user.Balance)
	require.Equal(t, 1, user.LotsWon)

	// A price above the remaining balance loses the guard and changes
	// nothing.
	err = repo.CheckAndSettle(ctx, testutil.User1.ID, user.Balance+1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	after, err := repo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, user.Balance, after.Balance)
	require.Equal(t, 1, after.LotsWon)
}
