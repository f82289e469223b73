//go:build integration

package promptgen

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresStore creates an ephemeral PostgreSQL container for testing.
func setupPostgresStore(t *testing.T) (*PostgresStore, string, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("promptgen_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	store, err := NewPostgresStore(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create postgres store")

	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	}

	return store, connStr, cleanup
}

func TestPostgres_E2E_BasicCRUD(t *testing.T) {
	store, _, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("Store", func(t *testing.T) {
		err := store.Store(ctx, "pools/pose.yaml", []byte("standing: standing\n"))
		require.NoError(t, err)
	})

	t.Run("Load", func(t *testing.T) {
		data, err := store.Load(ctx, "pools/pose.yaml")
		require.NoError(t, err)
		assert.Equal(t, "standing: standing\n", string(data))
	})

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "ghost.yaml")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := store.Exists(ctx, "pools/pose.yaml")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, "ghost.yaml")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Upsert", func(t *testing.T) {
		require.NoError(t, store.Store(ctx, "pools/pose.yaml", []byte("sitting: sitting\n")))

		data, err := store.Load(ctx, "pools/pose.yaml")
		require.NoError(t, err)
		assert.Equal(t, "sitting: sitting\n", string(data))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "pools/pose.yaml"))

		_, err := store.Load(ctx, "pools/pose.yaml")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		err = store.Delete(ctx, "pools/pose.yaml")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestPostgres_E2E_ListPrefix(t *testing.T) {
	store, _, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	seed := []string{
		"pools/a_one.yaml",
		"pools/axone.yaml",
		"pools/b.yaml",
		"templates/t.yaml",
	}
	for _, p := range seed {
		require.NoError(t, store.Store(ctx, p, []byte("k: v\n")))
	}

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pools/a_one.yaml", "pools/axone.yaml", "pools/b.yaml", "templates/t.yaml"}, all)

	pools, err := store.List(ctx, "pools/")
	require.NoError(t, err)
	assert.Len(t, pools, 3)

	// An underscore in the prefix is a literal, not a LIKE wildcard.
	underscored, err := store.List(ctx, "pools/a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"pools/a_one.yaml"}, underscored)
}

func TestPostgres_E2E_ConcurrentWrites(t *testing.T) {
	store, _, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	const numGoroutines = 20
	var wg sync.WaitGroup
	errChan := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p := fmt.Sprintf("pools/pool-%02d.yaml", id)
			if err := store.Store(ctx, p, []byte(fmt.Sprintf("entry: value %d\n", id))); err != nil {
				errChan <- err
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent store failed: %v", err)
	}

	paths, err := store.List(ctx, "pools/")
	require.NoError(t, err)
	assert.Len(t, paths, numGoroutines)
}

func TestPostgres_E2E_MigrationsIdempotent(t *testing.T) {
	store, connStr, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "keep.yaml", []byte("k: v\n")))

	// A second store against the same database re-runs migrations
	// without disturbing existing rows.
	second, err := NewPostgresStore(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
	})
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Load(ctx, "keep.yaml")
	require.NoError(t, err)
	assert.Equal(t, "k: v\n", string(data))
}

func TestPostgres_E2E_ClosedStore(t *testing.T) {
	store, _, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Load(ctx, "a.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgStoreClosed)
}

func TestPostgres_E2E_EngineIntegration(t *testing.T) {
	store, _, cleanup := setupPostgresStore(t)
	defer cleanup()
	ctx := context.Background()

	for p, src := range portraitDocs() {
		require.NoError(t, store.Store(ctx, p, []byte(src)))
	}

	engine, err := New(WithStore(store))
	require.NoError(t, err)

	t.Run("Resolve", func(t *testing.T) {
		res, err := engine.Resolve(ctx, "prompts/elena.yaml", ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, "masterpiece, a woman reading, {Pose}, detailed", res.Document.Body)

		pose, ok := res.Context.Import("Pose")
		require.True(t, ok)
		assert.Equal(t, []string{"standing", "sitting"}, pose.Pool.Keys)
	})

	t.Run("Generate", func(t *testing.T) {
		result, err := engine.Generate(ctx, "prompts/elena.yaml", ResolveOptions{}, GenerateOptions{
			Mode:     ModeCombinatorial,
			SeedMode: SeedProgressive,
			BaseSeed: 100,
		})
		require.NoError(t, err)
		require.Len(t, result.Variants, 2)
		assert.Equal(t, "masterpiece, a woman reading, standing, detailed", result.Variants[0].Prompt)
		assert.Equal(t, "masterpiece, a woman reading, sitting, detailed", result.Variants[1].Prompt)
		assert.Equal(t, int64(100), result.Variants[0].Seed)
		assert.Equal(t, int64(101), result.Variants[1].Seed)
	})

	t.Run("CacheInvalidation", func(t *testing.T) {
		updated := `version: "1.0"
name: portrait-base
kind: template
body: "epic shot, {prompt}"
`
		require.NoError(t, store.Store(ctx, "templates/portrait.yaml", []byte(updated)))
		engine.InvalidateAll()

		res, err := engine.Resolve(ctx, "prompts/elena.yaml", ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, "epic shot, a woman reading", res.Document.Body)
	})
}
