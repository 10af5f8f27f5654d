package files

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/google/uuid"
)

type memoryRow struct {
	seq  int64
	file models.File
}

// MemoryRepository keeps file rows in process.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []memoryRow
	seq  int64
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, file *models.File) (*models.File, error) {
	if file.UserID == "" {
		return nil, common.ErrOwnerRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	file.ID = uuid.NewString()
	file.CreatedAt = r.now()
	r.rows = append(r.rows, memoryRow{seq: r.seq, file: *file})

	return file, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*models.File, error) {
	if ownerID == "" {
		return nil, common.ErrOwnerRequired
	}

	r.mu.RLock()
	owned := make([]memoryRow, 0)
	for _, row := range r.rows {
		if row.file.UserID == ownerID {
			owned = append(owned, row)
		}
	}
	r.mu.RUnlock()

	// newest first; insertion order breaks timestamp ties
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].file.CreatedAt.Equal(owned[j].file.CreatedAt) {
			return owned[i].file.CreatedAt.After(owned[j].file.CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})

	result := make([]*models.File, 0, len(owned))
	for _, row := range owned {
		f := row.file
		result = append(result, &f)
	}
	return result, nil
}
