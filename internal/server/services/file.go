package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/dmitrijs2005/agritrust/internal/server/auth"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/agritrust/internal/server/storage"
)

// Upload is one incoming file. The owner is not part of it.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FileView is a stored file together with a download URL for it.
type FileView struct {
	File *models.File
	URL  string
}

// FileService stores and lists files of the authenticated user. The owner
// is always taken from the request context.
type FileService struct {
	db          dbx.Database
	repomanager repomanager.RepositoryManager
	store       storage.Store
	log         logging.Logger
	now         func() time.Time
}

func NewFileService(db dbx.Database, m repomanager.RepositoryManager, store storage.Store, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		log:         log.With("module", "files"),
		now:         time.Now,
	}
}

func (s *FileService) Upload(ctx context.Context, up Upload) (*FileView, error) {
	ownerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	if up.Body == nil {
		return nil, common.NewValidationError("file", "No file was submitted.")
	}

	key := storage.NewKey(s.now())
	if err := s.store.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	f := &models.File{
		UserID:      ownerID,
		StorageKey:  key,
		FileName:    up.FileName,
		ContentType: up.ContentType,
		Size:        up.Size,
	}
	f, err := s.repomanager.Files(s.db.Conn()).Create(ctx, f)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn(ctx, "orphaned object", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("error saving file: %w", err)
	}

	url, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "user_id", ownerID, "file_id", f.ID, "size", f.Size)
	return &FileView{File: f, URL: url}, nil
}

// List returns the caller's files, newest first.
func (s *FileService) List(ctx context.Context) ([]*FileView, error) {
	ownerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	files, err := s.repomanager.Files(s.db.Conn()).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	views := make([]*FileView, 0, len(files))
	for _, f := range files {
		url, err := s.store.URL(ctx, f.StorageKey)
		if err != nil {
			return nil, err
		}
		views = append(views, &FileView{File: f, URL: url})
	}
	return views, nil
}
