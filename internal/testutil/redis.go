package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer is a disposable Redis instance.
type RedisContainer struct {
	Addr string
}

// NewRedisContainer starts Redis and returns its address. The container is
// terminated in t.Cleanup. Skipped under -short.
//
// Precondition: Docker must be available.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	rc := &RedisContainer{Addr: fmt.Sprintf("%s:%d", host, port.Int())}
	t.Logf("redis ready at %s [%s]", rc.Addr, time.Since(start))
	return rc
}

// Client returns a client on database db of the container, flushed before
// use and closed in t.Cleanup.
func (rc *RedisContainer) Client(t *testing.T, db int) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{Addr: rc.Addr, DB: db})
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing redis db %d: %v", db, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
