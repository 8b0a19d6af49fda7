package testredis

import (
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	sharedContainer *RedisContainer
	sharedOnce      sync.Once
)

type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// SetupSharedRedis creates a single Redis container shared across the tests of
// a package. The test is skipped when no container runtime is reachable.
//
// IMPORTANT: Tests using shared container CANNOT run in parallel!
func SetupSharedRedis(t *testing.T) *RedisContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		}

		redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err)

		host, err := redisContainer.Host(ctx)
		require.NoError(t, err)

		port, err := redisContainer.MappedPort(ctx, "6379")
		require.NoError(t, err)

		sharedContainer = &RedisContainer{
			Container: redisContainer,
			Addr:      host + ":" + port.Port(),
		}
	})

	require.NotNil(t, sharedContainer, "redis container failed to start earlier")
	return sharedContainer
}

func (rc *RedisContainer) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if rc.Container != nil {
		if err := rc.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// Client returns a client on a flushed database, closed when the test ends.
func (rc *RedisContainer) Client(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: rc.Addr})
	require.NoError(t, client.FlushDB(context.Background()).Err())

	t.Cleanup(func() { client.Close() })

	return client
}
