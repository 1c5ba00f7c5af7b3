package bookmarks

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/repotest"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"file":   func(t *testing.T) Repository { return NewFileRepository(t.TempDir()) },
		"sqlite": func(t *testing.T) Repository { return NewSQLiteRepository(repotest.OpenSQLite(t)) },
	}
}

func TestAdd_IsIdempotent(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			r := open(t)
			ctx := context.Background()

			bm, created, err := r.Add(ctx, "u1", "node1:8080")
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "", bm.Description)

			require.NoError(t, r.UpdateDescription(ctx, "u1", "node1:8080", "fav"))

			again, created, err := r.Add(ctx, "u1", "node1:8080")
			require.NoError(t, err)
			assert.False(t, created, "second add reports already exists")
			assert.Equal(t, "fav", again.Description, "existing record is left untouched")

			list, err := r.List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestBookmarks_AreScopedPerUser(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			r := open(t)
			ctx := context.Background()

			_, _, err := r.Add(ctx, "u1", "node1:8080")
			require.NoError(t, err)
			_, created, err := r.Add(ctx, "u2", "node1:8080")
			require.NoError(t, err)
			assert.True(t, created)
			_, _, err = r.Add(ctx, "u1", "node2:8080")
			require.NoError(t, err)

			l1, err := r.List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, l1, 2)

			l2, err := r.List(ctx, "u2")
			require.NoError(t, err)
			require.Len(t, l2, 1)
			assert.Equal(t, "u2", l2[0].UserID)

			none, err := r.List(ctx, "u3")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			r := open(t)
			ctx := context.Background()

			assert.ErrorIs(t, r.UpdateDescription(ctx, "u1", "nope:1", "x"), common.ErrNotFound)
			assert.ErrorIs(t, r.Delete(ctx, "u1", "nope:1"), common.ErrNotFound)

			_, _, err := r.Add(ctx, "u1", "node1:8080")
			require.NoError(t, err)
			require.NoError(t, r.Delete(ctx, "u1", "node1:8080"))
			assert.ErrorIs(t, r.Delete(ctx, "u1", "node1:8080"), common.ErrNotFound)

			list, err := r.List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}
