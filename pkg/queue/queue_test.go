package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/store"
)

type testEnv struct {
	mr        *miniredis.Miniredis
	store     *store.Store
	repo      *Repo
	lifecycle *Lifecycle
	scheduler *Scheduler
	stats     *Stats
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	loggerFactory := infra.ProvideLoggerFactory()
	st := store.ProvideStore(client, loggerFactory)
	repo := ProvideRepo(st, loggerFactory)
	stats := ProvideStats(loggerFactory)

	return &testEnv{
		mr:        mr,
		store:     st,
		repo:      repo,
		lifecycle: ProvideLifecycle(st, loggerFactory),
		scheduler: ProvideScheduler(st, repo, stats, loggerFactory),
		stats:     stats,
	}
}

func testQueueConfig() *QueueConfig {
	return &QueueConfig{
		Name:                        "flash sale",
		Capacity:                    100,
		MaxActiveUsers:              2,
		ActivationWindowSeconds:     60,
		PermissionExpirationSeconds: 300,
		CallbackURL:                 "http://tenant.example/callback",
	}
}

func (e *testEnv) setupQueue(t *testing.T, config *QueueConfig) string {
	t.Helper()
	setup, err := e.repo.Setup(context.Background(), config)
	require.NoError(t, err)
	return setup.QueueId
}

func (e *testEnv) sweep(t *testing.T, queueId string) *SweepResult {
	t.Helper()
	result, err := e.scheduler.sweepQueue(context.Background(), queueId)
	require.NoError(t, err)
	return result
}

// lapse rewrites a member's expiry score into the past, simulating a
// deadline passing without sleeping through it.
func (e *testEnv) lapse(t *testing.T, setKey, member string) {
	t.Helper()
	require.NoError(t, e.store.SortedSetAdd(context.Background(), setKey, member, 1))
}
