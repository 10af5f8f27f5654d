package files

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_NewestFirst(t *testing.T) {
	r := NewMemoryRepository()
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	for _, name := range []string{"t1", "t2", "t3"} {
		_, err := r.Create(ctx, &models.File{UserID: "a", FileName: name})
		require.NoError(t, err)
	}

	got, err := r.ListByOwner(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{got[0].FileName, got[1].FileName, got[2].FileName})
}

func TestMemoryRepository_SameTimestampUsesInsertionOrder(t *testing.T) {
	r := NewMemoryRepository()
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		_, err := r.Create(ctx, &models.File{UserID: "a", FileName: name})
		require.NoError(t, err)
	}

	got, err := r.ListByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got[0].FileName)
	assert.Equal(t, "first", got[1].FileName)
}

func TestMemoryRepository_OwnershipIsolation(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		owner := "a"
		if i%2 == 1 {
			owner = "b"
		}
		wg.Add(1)
		go func(owner string, i int) {
			defer wg.Done()
			_, err := r.Create(ctx, &models.File{UserID: owner, FileName: fmt.Sprintf("%s-%d", owner, i)})
			assert.NoError(t, err)
		}(owner, i)
	}
	wg.Wait()

	for _, owner := range []string{"a", "b"} {
		got, err := r.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, got, 10)
		for _, f := range got {
			assert.Equal(t, owner, f.UserID)
		}
	}

	none, err := r.ListByOwner(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryRepository_OwnerRequired(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Create(ctx, &models.File{})
	assert.ErrorIs(t, err, common.ErrOwnerRequired)

	_, err = r.ListByOwner(ctx, "")
	assert.ErrorIs(t, err, common.ErrOwnerRequired)
}
