package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/repository/postgres"
	"github.com/sujal/maths-tabel-server/internal/testutil"
)

func TestSessionRepository_GetValid(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	live := testutil.NewSessionBuilder(user.ID).ExpiresAt(now.Add(time.Hour)).Build(t, testDB.DB)
	expired := testutil.NewSessionBuilder(user.ID).ExpiresAt(now.Add(-time.Minute)).Build(t, testDB.DB)

	got, err := repo.GetValid(ctx, live.ID, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	// Expired session
	_, err = repo.GetValid(ctx, expired.ID, user.ID, now)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Session id paired with the wrong user
	_, err = repo.GetValid(ctx, live.ID, uuid.New(), now)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_TouchIntervalGuard(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()
	interval := time.Minute

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	session := testutil.NewSessionBuilder(user.ID).
		LastSeenAt(now.Add(-2 * interval)).
		Build(t, testDB.DB)

	require.NoError(t, repo.Touch(ctx, session.ID, now, interval))

	got, err := repo.GetValid(ctx, session.ID, user.ID, now)
	require.NoError(t, err)
	firstSeen := got.LastSeenAt
	assert.WithinDuration(t, now, firstSeen, time.Second)

	// A second touch inside the interval is a no-op, however many
	// concurrent requests race it.
	require.NoError(t, repo.Touch(ctx, session.ID, now.Add(time.Second), interval))

	got, err = repo.GetValid(ctx, session.ID, user.ID, now)
	require.NoError(t, err)
	assert.WithinDuration(t, firstSeen, got.LastSeenAt, time.Millisecond)
}

func TestSessionRepository_DeleteByUserID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	keep := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	otherSession := testutil.NewSessionBuilder(other.ID).Build(t, testDB.DB)

	// All but the kept session
	require.NoError(t, repo.DeleteByUserID(ctx, user.ID, keep.ID))

	_, err := repo.GetValid(ctx, keep.ID, user.ID, now)
	assert.NoError(t, err)

	sessions, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// uuid.Nil means delete everything for the user
	require.NoError(t, repo.DeleteByUserID(ctx, user.ID, uuid.Nil))
	sessions, err = repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, otherSession.ID, sessions[0].ID)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.NewSessionBuilder(user.ID).ExpiresAt(now.Add(-time.Hour)).Build(t, testDB.DB)
	testutil.NewSessionBuilder(user.ID).ExpiresAt(now.Add(-time.Minute)).Build(t, testDB.DB)
	live := testutil.NewSessionBuilder(user.ID).ExpiresAt(now.Add(time.Hour)).Build(t, testDB.DB)

	swept, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, swept)

	sessions, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, live.ID, sessions[0].ID)
}

func TestSessionRepository_ListActiveOrdering(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	stale := testutil.NewSessionBuilder(user.ID).LastSeenAt(now.Add(-time.Hour)).Build(t, testDB.DB)
	fresh := testutil.NewSessionBuilder(user.ID).LastSeenAt(now).Build(t, testDB.DB)

	sessions, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, fresh.ID, sessions[0].ID)
	assert.Equal(t, stale.ID, sessions[1].ID)
}
