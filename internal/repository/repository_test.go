// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"user-of-the-day-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running.
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = Migrate(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// counters reads the membership counters for one pair directly.
func counters(t *testing.T, pool *pgxpool.Pool, chatID, userID int64) (int, int) {
	t.Helper()
	var userCount, pidorCount int
	err := pool.QueryRow(context.Background(),
		`SELECT user_count, pidor_count FROM memberships WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID,
	).Scan(&userCount, &pidorCount)
	require.NoError(t, err)
	return userCount, pidorCount
}

const testChatID = int64(-100500)

// ============================================================================
// RosterRepository Tests
// ============================================================================

func TestRosterRepository_Register(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)
	ctx := context.Background()

	outcome, err := repo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, RegisterAdmitted, outcome)

	players, err := repo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, int64(1), players[0].User.ID)
	assert.Equal(t, "alice", players[0].User.Username)
	assert.Equal(t, "Alice", players[0].User.FirstName)
	assert.Equal(t, 0, players[0].UserCount)
	assert.Equal(t, 0, players[0].PidorCount)
}

func TestRosterRepository_Register_DuplicateKeepsFirstNames(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)
	ctx := context.Background()

	outcome, err := repo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)
	require.Equal(t, RegisterAdmitted, outcome)

	// Duplicate attempts are rejected before any field update, so the
	// stored names stay from the first registration.
	outcome, err = repo.Register(ctx, testChatID, 1, "renamed", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, RegisterAlreadyMember, outcome)

	players, err := repo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "alice", players[0].User.Username)
	assert.Equal(t, "Alice", players[0].User.FirstName)

	var memberships int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE chat_id = $1 AND user_id = $2`,
		testChatID, int64(1)).Scan(&memberships)
	require.NoError(t, err)
	assert.Equal(t, 1, memberships)
}

func TestRosterRepository_Register_SecondChatRefreshesNames(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)
	ctx := context.Background()

	_, err := repo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)

	// First registration in a different chat is a genuine first-time
	// admission there, so the global user row gets the fresh names.
	otherChat := testChatID - 1
	outcome, err := repo.Register(ctx, otherChat, 1, "alice_new", "Alice New")
	require.NoError(t, err)
	assert.Equal(t, RegisterAdmitted, outcome)

	user, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", user.Username)
	assert.Equal(t, "Alice New", user.FirstName)
}

func TestRosterRepository_Register_Concurrent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)
	ctx := context.Background()

	const attempts = 8
	outcomes := make([]RegisterOutcome, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = repo.Register(ctx, testChatID, 1, "alice", "Alice")
		}(i)
	}
	wg.Wait()

	admitted := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if outcomes[i] == RegisterAdmitted {
			admitted++
		} else {
			assert.Equal(t, RegisterAlreadyMember, outcomes[i])
		}
	}
	assert.Equal(t, 1, admitted)

	players, err := repo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestRosterRepository_ListPlayers_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)
	gameRepo := NewGameRepository(pool)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := repo.Register(ctx, testChatID, i, "", "P")
		require.NoError(t, err)
	}

	// Give user 2 two wins and user 3 one win on separate days.
	require.NoError(t, gameRepo.CommitWinner(ctx, testChatID, 2, "P", 10, model.GameUserOfDay))
	require.NoError(t, gameRepo.CommitWinner(ctx, testChatID, 2, "P", 11, model.GameUserOfDay))
	require.NoError(t, gameRepo.CommitWinner(ctx, testChatID, 3, "P", 12, model.GameUserOfDay))

	players, err := repo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, int64(2), players[0].User.ID) // 2 wins
	assert.Equal(t, int64(3), players[1].User.ID) // 1 win
	assert.Equal(t, int64(1), players[2].User.ID) // 0 wins
}

func TestRosterRepository_ListPlayers_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRosterRepository(pool)

	players, err := repo.ListPlayers(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Empty(t, players)
}

// ============================================================================
// GameRepository Tests
// ============================================================================

func TestGameRepository_HasRunToday(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	// Unknown chat has never run.
	ran, err := repo.HasRunToday(ctx, testChatID, 100, model.GameUserOfDay)
	require.NoError(t, err)
	assert.False(t, ran)

	_, err = rosterRepo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)

	require.NoError(t, repo.CommitWinner(ctx, testChatID, 1, "Alice (@alice)", 100, model.GameUserOfDay))

	ran, err = repo.HasRunToday(ctx, testChatID, 100, model.GameUserOfDay)
	require.NoError(t, err)
	assert.True(t, ran)

	// The next day is a fresh cycle even though the counter persists.
	ran, err = repo.HasRunToday(ctx, testChatID, 101, model.GameUserOfDay)
	require.NoError(t, err)
	assert.False(t, ran)

	// The other game's cycle is independent.
	ran, err = repo.HasRunToday(ctx, testChatID, 100, model.GamePidorOfDay)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestGameRepository_CurrentWinner(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	// Never run means empty.
	winner, err := repo.CurrentWinner(ctx, testChatID, model.GamePidorOfDay)
	require.NoError(t, err)
	assert.Equal(t, "", winner)

	_, err = rosterRepo.Register(ctx, testChatID, 1, "bob", "Bob")
	require.NoError(t, err)

	require.NoError(t, repo.CommitWinner(ctx, testChatID, 1, "Bob (@bob)", 50, model.GamePidorOfDay))

	winner, err = repo.CurrentWinner(ctx, testChatID, model.GamePidorOfDay)
	require.NoError(t, err)
	assert.Equal(t, "Bob (@bob)", winner)

	// The other game's winner is untouched.
	winner, err = repo.CurrentWinner(ctx, testChatID, model.GameUserOfDay)
	require.NoError(t, err)
	assert.Equal(t, "", winner)
}

func TestGameRepository_CommitWinner(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	_, err := rosterRepo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)

	require.NoError(t, repo.CommitWinner(ctx, testChatID, 1, "Alice (@alice)", 100, model.GameUserOfDay))

	userCount, pidorCount := counters(t, pool, testChatID, 1)
	assert.Equal(t, 1, userCount)
	assert.Equal(t, 0, pidorCount)

	// A second commit for the same day loses the conditional check and
	// leaves the counter alone.
	err = repo.CommitWinner(ctx, testChatID, 1, "Alice (@alice)", 100, model.GameUserOfDay)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)

	userCount, _ = counters(t, pool, testChatID, 1)
	assert.Equal(t, 1, userCount)

	// The next day commits again.
	require.NoError(t, repo.CommitWinner(ctx, testChatID, 1, "Alice (@alice)", 101, model.GameUserOfDay))
	userCount, _ = counters(t, pool, testChatID, 1)
	assert.Equal(t, 2, userCount)
}

func TestGameRepository_CommitWinner_NotMemberRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	_, err := rosterRepo.Register(ctx, testChatID, 1, "alice", "Alice")
	require.NoError(t, err)

	require.NoError(t, repo.CommitWinner(ctx, testChatID, 1, "Alice (@alice)", 100, model.GameUserOfDay))

	// A commit for a user without a roster entry rolls back both writes.
	err = repo.CommitWinner(ctx, testChatID, 99, "Ghost", 101, model.GameUserOfDay)
	assert.ErrorIs(t, err, ErrNotMember)

	winner, err := repo.CurrentWinner(ctx, testChatID, model.GameUserOfDay)
	require.NoError(t, err)
	assert.Equal(t, "Alice (@alice)", winner)

	ran, err := repo.HasRunToday(ctx, testChatID, 101, model.GameUserOfDay)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestGameRepository_CommitWinner_ConcurrentSingleIncrement(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	repo := NewGameRepository(pool)
	ctx := context.Background()

	const members = 5
	for i := int64(1); i <= members; i++ {
		_, err := rosterRepo.Register(ctx, testChatID, i, "", "P")
		require.NoError(t, err)
	}

	// Concurrent commits for the same day race on the chat row lock;
	// exactly one wins.
	errs := make([]error, members)
	var wg sync.WaitGroup
	wg.Add(members)
	for i := 0; i < members; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CommitWinner(ctx, testChatID, int64(i+1), "P", 100, model.GameUserOfDay)
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyCommitted)
		}
	}
	assert.Equal(t, 1, committed)

	var total int
	err := pool.QueryRow(ctx, `SELECT COALESCE(SUM(user_count), 0) FROM memberships WHERE chat_id = $1`,
		testChatID).Scan(&total)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// ============================================================================
// Seed Tests
// ============================================================================

func TestSeedIfEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	rosterRepo := NewRosterRepository(pool)
	ctx := context.Background()

	data := &SeedData{
		ChatID: testChatID,
		Players: []SeedPlayer{
			{UserID: 1, Username: "alice", FirstName: "Alice", UserCount: 44, PidorCount: 28},
			{UserID: 2, FirstName: "Bob", UserCount: 23, PidorCount: 33},
		},
	}

	require.NoError(t, SeedIfEmpty(ctx, pool, data))

	players, err := rosterRepo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, 44, players[0].UserCount) // ordered by user_count desc
	assert.Equal(t, 28, players[0].PidorCount)

	// Seeding a populated database is a no-op.
	require.NoError(t, SeedIfEmpty(ctx, pool, &SeedData{
		ChatID:  testChatID,
		Players: []SeedPlayer{{UserID: 3, FirstName: "Carol"}},
	}))
	players, err = rosterRepo.ListPlayers(ctx, testChatID)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	// Seeded memberships hold the same uniqueness invariant registration does.
	outcome, err := rosterRepo.Register(ctx, testChatID, 1, "alice2", "Alice2")
	require.NoError(t, err)
	assert.Equal(t, RegisterAlreadyMember, outcome)
}
