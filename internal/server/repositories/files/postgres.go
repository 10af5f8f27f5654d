package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file row owned by file.UserID.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if file.UserID == "" {
		return nil, common.ErrOwnerRequired
	}

	query := `
		INSERT INTO files (user_id, storage_key, file_name, content_type, size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.StorageKey, file.FileName, file.ContentType, file.Size).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// ListByOwner returns all files of ownerID ordered by creation time, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	if ownerID == "" {
		return nil, common.ErrOwnerRequired
	}

	query := `
		SELECT id, user_id, storage_key, file_name, content_type, size, created_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.UserID, &item.StorageKey, &item.FileName, &item.ContentType, &item.Size, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
